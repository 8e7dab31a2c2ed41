// Package plugin defines the contract between the appkernel lifecycle
// controller and the independently-authored plugins it hosts. A plugin is a
// named unit of functionality that declares its options, is initialized
// with its resolved configuration, started, and eventually shut down in
// reverse start order.
package plugin

import (
	"log/slog"

	"github.com/c360/appkernel/metric"
	"github.com/c360/appkernel/option"
)

// State represents the current lifecycle state of a plugin
type State int

const (
	// StateRegistered indicates the plugin is known to the registry but
	// not yet initialized
	StateRegistered State = iota
	// StateInitialized indicates the plugin received its resolved options
	StateInitialized
	// StateStarted indicates the plugin is running
	StateStarted
	// StateStopped indicates the plugin has been shut down
	StateStopped
)

// String returns a string representation of the plugin state
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Scheduler is the run-loop surface exposed to plugins: work posted here
// executes on the kernel's single loop goroutine.
type Scheduler interface {
	// Post schedules fn onto the run loop. It reports false once the
	// loop has quit.
	Post(fn func()) bool
}

// Host is the narrow view of the kernel a plugin receives at
// initialization. It is how a plugin obtains a non-owning reference to a
// sibling plugin, reaches the resolved directories, and requests a
// graceful stop. It is deliberately not a general dependency-injection
// container.
type Host interface {
	// FindPlugin returns the named plugin, or nil if not registered
	FindPlugin(name string) Plugin
	// GetPlugin returns the named plugin or fails with ErrPluginNotFound
	GetPlugin(name string) (Plugin, error)
	// DataDir returns the resolved runtime data directory
	DataDir() string
	// ConfigDir returns the resolved configuration directory
	ConfigDir() string
	// LoggingConf returns the resolved logging configuration path
	LoggingConf() string
	// Logger returns the kernel's structured logger
	Logger() *slog.Logger
	// Metrics returns the kernel's metrics registry
	Metrics() *metric.Registry
	// Scheduler returns the kernel run loop for posting work
	Scheduler() Scheduler
	// Quit requests a graceful stop of the run loop
	Quit()
}

// Plugin is the capability set a hosted plugin exposes to the lifecycle
// controller. Implementations must embed Base, which carries the name and
// the state machine; the controller advances the state, plugins only
// observe it.
type Plugin interface {
	// Name returns the unique plugin name
	Name() string
	// State returns the current lifecycle state
	State() State
	// Requires returns the names of plugins that must be initialized
	// before this one. The controller initializes them first and fails
	// fast on cycles.
	Requires() []string
	// DeclareOptions contributes the plugin's command-line-only and
	// config-file option groups to the merged schema. Config-file
	// options are implicitly also exposed on the command line.
	DeclareOptions(cli, cfg *option.Group)
	// Initialize receives the host handle and the plugin's slice of
	// resolved options. Called exactly once, from state registered.
	Initialize(host Host, opts option.Resolved) error
	// Startup begins active work. Called once, from state initialized.
	Startup() error
	// Shutdown stops active work. Called once, in reverse start order.
	// Shutdown must release resources rather than fail; errors are
	// logged and the drain continues.
	Shutdown() error

	// advance moves the state machine; only Base provides it, so every
	// implementation embeds Base and only this package's Transition can
	// drive transitions.
	advance(State)
}

// Base carries a plugin's identity and lifecycle state. Embed it by value
// in every plugin implementation:
//
//	type chainPlugin struct {
//	    plugin.Base
//	}
//
// and construct with plugin.NewBase(name).
type Base struct {
	name  string
	state State
}

// NewBase creates the embeddable plugin core in state registered
func NewBase(name string) Base {
	return Base{name: name, state: StateRegistered}
}

// Name returns the plugin name
func (b *Base) Name() string { return b.name }

// State returns the current lifecycle state
func (b *Base) State() State { return b.state }

// Requires returns no dependencies; override to declare some
func (b *Base) Requires() []string { return nil }

func (b *Base) advance(s State) { b.state = s }

// Transition advances a plugin's state machine. It exists for the
// lifecycle controller; plugins never call it.
func Transition(p Plugin, s State) {
	p.advance(s)
}
