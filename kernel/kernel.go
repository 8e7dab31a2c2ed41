// Package kernel implements the plugin lifecycle controller: a registry of
// plugins driven through registration, initialization, startup and
// reverse-order shutdown, with configuration resolved once from the command
// line and a config file before the run loop starts.
package kernel

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/c360/appkernel/config"
	"github.com/c360/appkernel/errors"
	"github.com/c360/appkernel/metric"
	"github.com/c360/appkernel/option"
	"github.com/c360/appkernel/plugin"
	"github.com/c360/appkernel/runloop"
)

// Options configures a Kernel. The host constructs exactly one Kernel per
// process; there is no hidden global instance.
type Options struct {
	// AppName appears in help output and log fields
	AppName string
	// Version is the host-assigned numeric version
	Version uint64
	// VersionString is printed by --version
	VersionString string
	// DefaultDataDir overrides the default runtime data directory
	DefaultDataDir string
	// DefaultConfigDir overrides the default configuration directory
	DefaultConfigDir string
	// Logger is the kernel's structured logger (default slog.Default())
	Logger *slog.Logger
	// Metrics is the metrics registry (default a fresh metric.NewRegistry())
	Metrics *metric.Registry
	// Out receives --version and --print-default-config output
	// (default os.Stdout)
	Out io.Writer
	// WarnWriter receives the redundant-default diagnostic
	// (default os.Stderr)
	WarnWriter io.Writer
}

// Kernel owns the plugin registry and drives every plugin through its
// lifecycle. Registration, schema building and configuration merging happen
// strictly before the run loop starts; the registry has exactly one mutator
// goroutine, so no locking is required.
type Kernel struct {
	opts    Options
	logger  *slog.Logger
	metrics *metric.Registry
	loop    *runloop.Loop

	plugins   map[string]plugin.Plugin
	order     []string // registration order, drives schema assembly
	initOrder []plugin.Plugin
	started   []plugin.Plugin

	fullSchema *option.Schema
	cfgSchema  *option.Schema
	resolved   option.Resolved

	dataDir     string
	configDir   string
	loggingConf string
}

// New constructs a kernel. The returned object is the explicit application
// context the host threads through its entry point.
func New(opts Options) *Kernel {
	if opts.AppName == "" {
		opts.AppName = "appkernel"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metric.NewRegistry()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.WarnWriter == nil {
		opts.WarnWriter = os.Stderr
	}
	return &Kernel{
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		loop:    runloop.New(opts.Logger),
		plugins: make(map[string]plugin.Plugin),
	}
}

// Register adds a plugin in state registered. A duplicate name fails with
// ErrDuplicateName and leaves the registry unchanged.
func (k *Kernel) Register(p plugin.Plugin) error {
	name := p.Name()
	if name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: plugin with empty name", errors.ErrDuplicateName),
			"Kernel", "Register", "name validation")
	}
	if _, exists := k.plugins[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrDuplicateName, name),
			"Kernel", "Register", "duplicate plugin check")
	}
	k.plugins[name] = p
	k.order = append(k.order, name)
	k.metrics.Metrics.PluginsRegistered.Set(float64(len(k.plugins)))
	k.metrics.Metrics.PluginState.WithLabelValues(name).Set(float64(plugin.StateRegistered))
	k.logger.Debug("plugin registered", "plugin", name)
	return nil
}

// FindPlugin returns the named plugin, or nil if not registered
func (k *Kernel) FindPlugin(name string) plugin.Plugin {
	return k.plugins[name]
}

// GetPlugin returns the named plugin or fails with ErrPluginNotFound
func (k *Kernel) GetPlugin(name string) (plugin.Plugin, error) {
	p, ok := k.plugins[name]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrPluginNotFound, name),
			"Kernel", "GetPlugin", "plugin lookup")
	}
	return p, nil
}

// PluginCount returns the number of plugins currently registered
func (k *Kernel) PluginCount() int { return len(k.plugins) }

// DataDir returns the resolved runtime data directory
func (k *Kernel) DataDir() string { return k.dataDir }

// ConfigDir returns the resolved configuration directory
func (k *Kernel) ConfigDir() string { return k.configDir }

// LoggingConf returns the resolved logging configuration path
func (k *Kernel) LoggingConf() string { return k.loggingConf }

// Logger returns the kernel's structured logger
func (k *Kernel) Logger() *slog.Logger { return k.logger }

// Metrics returns the kernel's metrics registry
func (k *Kernel) Metrics() *metric.Registry { return k.metrics }

// Scheduler returns the run loop as the plugin-facing scheduler
func (k *Kernel) Scheduler() plugin.Scheduler { return k.loop }

// Loop returns the kernel run loop
func (k *Kernel) Loop() *runloop.Loop { return k.loop }

// Version returns the host-assigned numeric version
func (k *Kernel) Version() uint64 { return k.opts.Version }

// VersionString returns the printable version string
func (k *Kernel) VersionString() string {
	if k.opts.VersionString == "" {
		return k.opts.AppName + " 0.0.0"
	}
	return k.opts.VersionString
}

// ResolvedOptions returns the full merged option map. Plugins normally use
// the slice handed to Initialize instead.
func (k *Kernel) ResolvedOptions() option.Resolved { return k.resolved }

// buildSchemas asks every registered plugin for its option groups, in
// registration order, and merges them with the application-level options
// into the full schema and the config-only sub-schema. Long-name
// collisions fail here.
func (k *Kernel) buildSchemas() error {
	full := option.NewSchema()
	cfg := option.NewSchema()

	for _, name := range k.order {
		p := k.plugins[name]
		cliGroup := option.NewGroup(name)
		cfgGroup := option.NewGroup(name)
		p.DeclareOptions(cliGroup, cfgGroup)

		// config options are also exposed on the command line
		if cfgGroup.Len() > 0 {
			if err := full.AddGroup(cfgGroup); err != nil {
				return err
			}
			if err := cfg.AddGroup(cfgGroup); err != nil {
				return err
			}
		}
		if cliGroup.Len() > 0 {
			if err := full.AddGroup(cliGroup); err != nil {
				return err
			}
		}
	}

	if err := full.AddGroup(config.AppConfigGroup()); err != nil {
		return err
	}
	if err := cfg.AddGroup(config.AppConfigGroup()); err != nil {
		return err
	}
	if err := full.AddGroup(config.AppCLIGroup()); err != nil {
		return err
	}

	k.fullSchema = full
	k.cfgSchema = cfg
	return nil
}

// pluginOptions filters the merged map down to the options a plugin
// declared, the slice its Initialize hook receives.
func (k *Kernel) pluginOptions(name string) option.Resolved {
	out := make(option.Resolved)
	for _, opt := range k.fullSchema.Options() {
		if opt.Plugin != name {
			continue
		}
		if v, ok := k.resolved[opt.Name]; ok {
			out[opt.Name] = v
		}
	}
	return out
}

// splitPluginArg splits a --plugin value on spaces, tabs and commas
func splitPluginArg(arg string) []string {
	return strings.FieldsFunc(arg, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}
