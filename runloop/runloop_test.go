package runloop

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLoop() *Loop {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_ExecutesPostedTasks(t *testing.T) {
	l := quietLoop()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		require.True(t, l.Post(func() { order = append(order, i) }))
	}
	require.True(t, l.Post(l.Quit))

	l.Run()
	// tasks ran in posting order, on the Run goroutine, no locking needed
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPost_AfterQuit(t *testing.T) {
	l := quietLoop()
	l.Quit()
	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Post(nil))
}

func TestQuit_Idempotent(t *testing.T) {
	l := quietLoop()
	l.Quit()
	l.Quit()

	select {
	case <-l.Quitting():
	default:
		t.Fatal("Quitting channel not closed after Quit")
	}
}

func TestRun_StopsOnQuitFromAnotherGoroutine(t *testing.T) {
	l := quietLoop()

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	require.True(t, l.Post(func() { wg.Done() }))
	wg.Wait()

	l.Quit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestRun_DropsPendingTasksAfterQuit(t *testing.T) {
	l := quietLoop()

	var ran int
	require.True(t, l.Post(func() {
		ran++
		l.Quit()
	}))
	require.True(t, l.Post(func() { ran++ }))

	l.Run()
	assert.Equal(t, 1, ran, "tasks queued behind Quit must not run")
}

func TestBindSignals_StopsLoop(t *testing.T) {
	l := quietLoop()
	unbind := l.BindSignals(syscall.SIGUSR1)
	defer unbind()

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("signal did not stop the loop")
	}
}

func TestBindSignals_UnbindReleasesRegistration(t *testing.T) {
	l := quietLoop()
	unbind := l.BindSignals(syscall.SIGUSR2)
	unbind()

	// after unbind the signal goroutine exits without quitting the loop
	select {
	case <-l.Quitting():
		t.Fatal("loop quit without a signal")
	case <-time.After(50 * time.Millisecond):
	}
}
