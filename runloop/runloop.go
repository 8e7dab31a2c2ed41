// Package runloop implements the kernel's single-threaded reactor. Plugins
// and the host post work onto the loop; Run blocks until Quit is called,
// either programmatically or by an operating-system termination signal
// dispatched through the loop.
package runloop

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// taskBuffer bounds the number of queued tasks before Post blocks
const taskBuffer = 128

// Loop is a single-threaded task reactor. One goroutine calls Run; any
// goroutine may Post work or call Quit. After Quit, pending tasks are
// dropped and Post reports false.
type Loop struct {
	tasks    chan func()
	quit     chan struct{}
	quitOnce sync.Once
	logger   *slog.Logger
}

// New creates a stopped-state loop ready to Run. A nil logger falls back
// to slog.Default().
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make(chan func(), taskBuffer),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

// Post schedules fn to run on the loop goroutine. It reports false once
// the loop has quit. Post may block briefly when the task queue is full.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.quit:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Quit requests the loop to stop. It is idempotent and safe from any
// goroutine, including tasks running on the loop itself. Cancellation is
// cooperative: in-flight work is not interrupted.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() {
		close(l.quit)
	})
}

// Quitting returns a channel closed once Quit has been called
func (l *Loop) Quitting() <-chan struct{} {
	return l.quit
}

// Run executes posted tasks on the calling goroutine until Quit. Tasks
// still queued when the loop stops are dropped, matching the reactor's
// stop-means-stop semantics.
func (l *Loop) Run() {
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			fn()
			// re-check quit before draining more work
			select {
			case <-l.quit:
				return
			default:
			}
		}
	}
}

// BindSignals arranges for the given termination signals to stop the loop.
// With no arguments it binds SIGINT, SIGTERM and SIGPIPE. The first signal
// received dispatches the quit action through the loop (so it runs on the
// loop goroutine, not a raw handler stack) and cancels the remaining
// waits. The returned function releases the signal registration.
func (l *Loop) BindSignals(sigs ...os.Signal) func() {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		signal.Stop(ch)
		l.logger.Info("termination signal received", "signal", sig.String())
		if !l.Post(l.Quit) {
			// loop already quit; nothing to dispatch
			l.Quit()
		}
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
