package kernel

import (
	"fmt"
	"time"

	"github.com/c360/appkernel/config"
	"github.com/c360/appkernel/errors"
	"github.com/c360/appkernel/option"
	"github.com/c360/appkernel/plugin"
)

// Initialize builds the merged schema, runs the configuration merge, and
// initializes the plugins selected by --plugin plus the host's autostart
// set. It reports proceed=false when the command line asked for an
// informational action (help, version, print-default-config); the host
// should then exit without entering the run loop.
func (k *Kernel) Initialize(args []string, autostart ...plugin.Plugin) (proceed bool, err error) {
	if err := k.buildSchemas(); err != nil {
		return false, err
	}

	loader := config.NewLoader(k.fullSchema, k.cfgSchema, config.LoaderOptions{
		AppName:          k.opts.AppName,
		DefaultDataDir:   k.opts.DefaultDataDir,
		DefaultConfigDir: k.opts.DefaultConfigDir,
		WarnWriter:       k.opts.WarnWriter,
		HelpWriter:       k.opts.Out,
		Logger:           k.logger,
	})

	res, err := loader.Load(args)
	if err != nil {
		return false, err
	}

	switch res.Action {
	case config.ActionHelp:
		loader.PrintHelp()
		return false, nil
	case config.ActionVersion:
		fmt.Fprintln(k.opts.Out, k.VersionString())
		return false, nil
	case config.ActionPrintDefaultConfig:
		if err := option.WriteDefaultConfig(k.opts.Out, k.cfgSchema); err != nil {
			return false, err
		}
		return false, nil
	}

	k.resolved = res.Options
	k.dataDir = res.DataDir
	k.configDir = res.ConfigDir
	k.loggingConf = res.LoggingConf

	k.logger.Info("configuration resolved",
		"config_file", res.ConfigFile,
		"data_dir", k.dataDir,
		"config_dir", k.configDir)

	// --plugin selections first: explicit requests take precedence over
	// the autostart set and are never double-initialized.
	if names, ok := k.resolved.StringList(config.OptPlugin); ok {
		for _, arg := range names {
			for _, name := range splitPluginArg(arg) {
				p, err := k.GetPlugin(name)
				if err != nil {
					return false, err
				}
				if err := k.InitializePlugin(p); err != nil {
					return false, err
				}
			}
		}
	}

	for _, p := range autostart {
		if p == nil || p.State() != plugin.StateRegistered {
			continue
		}
		if err := k.InitializePlugin(p); err != nil {
			return false, err
		}
	}

	return true, nil
}

// InitializePlugin initializes a plugin and, first, every plugin it
// declares in Requires(), depth-first. Calling it on a plugin not in state
// registered is a no-op, which makes repeated requests from --plugin and
// autostart idempotent. Dependency cycles fail with ErrDependencyCycle.
func (k *Kernel) InitializePlugin(p plugin.Plugin) error {
	return k.initializePlugin(p, make(map[string]bool))
}

func (k *Kernel) initializePlugin(p plugin.Plugin, visiting map[string]bool) error {
	if p.State() != plugin.StateRegistered {
		return nil
	}
	name := p.Name()
	if visiting[name] {
		return errors.WrapFatal(
			fmt.Errorf("%w: involving %q", errors.ErrDependencyCycle, name),
			"Kernel", "InitializePlugin", "dependency resolution")
	}
	visiting[name] = true
	defer delete(visiting, name)

	for _, depName := range p.Requires() {
		dep, err := k.GetPlugin(depName)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("plugin %q requires %q: %w", name, depName, err),
				"Kernel", "InitializePlugin", "dependency lookup")
		}
		if err := k.initializePlugin(dep, visiting); err != nil {
			return err
		}
	}

	if err := p.Initialize(k, k.pluginOptions(name)); err != nil {
		k.metrics.Metrics.LifecycleFailures.WithLabelValues(name, "initialize").Inc()
		return errors.Wrap(err, "Kernel", "InitializePlugin", "plugin "+name+" initialization")
	}

	plugin.Transition(p, plugin.StateInitialized)
	k.initOrder = append(k.initOrder, p)
	k.metrics.Metrics.PluginsInitialized.Set(float64(len(k.initOrder)))
	k.metrics.Metrics.PluginState.WithLabelValues(name).Set(float64(plugin.StateInitialized))
	k.logger.Info("plugin initialized", "plugin", name)
	return nil
}

// StartupPlugin invokes one plugin's startup hook. The plugin must be in
// state initialized; startup from registered is ErrInvalidState and leaves
// the state unchanged.
func (k *Kernel) StartupPlugin(p plugin.Plugin) error {
	name := p.Name()
	if p.State() != plugin.StateInitialized {
		return errors.WrapFatal(
			fmt.Errorf("%w: cannot start plugin %q in state %s",
				errors.ErrInvalidState, name, p.State()),
			"Kernel", "StartupPlugin", "state check")
	}

	start := time.Now()
	if err := p.Startup(); err != nil {
		k.metrics.Metrics.LifecycleFailures.WithLabelValues(name, "startup").Inc()
		return errors.Wrap(err, "Kernel", "StartupPlugin", "plugin "+name+" startup")
	}
	k.metrics.Metrics.StartupDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	plugin.Transition(p, plugin.StateStarted)
	k.started = append(k.started, p)
	k.metrics.Metrics.PluginsStarted.Set(float64(len(k.started)))
	k.metrics.Metrics.PluginState.WithLabelValues(name).Set(float64(plugin.StateStarted))
	k.logger.Info("plugin started", "plugin", name)
	return nil
}

// StartupAll starts every initialized plugin in initialization order. If
// any startup hook fails, whatever had already started is shut down in
// reverse before the original failure is returned; a partial start is
// never left running.
func (k *Kernel) StartupAll() error {
	for _, p := range k.initOrder {
		if p.State() != plugin.StateInitialized {
			continue
		}
		if err := k.StartupPlugin(p); err != nil {
			k.logger.Error("plugin startup failed, unwinding",
				"plugin", p.Name(), "error", err)
			_ = k.ShutdownAll()
			return err
		}
	}
	return nil
}

// ShutdownAll drains every started plugin in reverse start order. The
// drain has two passes: every shutdown hook runs first, and only then are
// the plugins erased from the registry, so a shutdown hook can still
// observe its siblings as present while they too are shutting down.
//
// A failing shutdown hook never halts the drain: the error is logged, the
// remaining hooks still run, and the first error is returned once the
// unwind is complete.
func (k *Kernel) ShutdownAll() error {
	var firstErr error

	for i := len(k.started) - 1; i >= 0; i-- {
		p := k.started[i]
		name := p.Name()
		start := time.Now()
		if err := p.Shutdown(); err != nil {
			k.metrics.Metrics.LifecycleFailures.WithLabelValues(name, "shutdown").Inc()
			k.logger.Error("plugin shutdown failed, continuing drain",
				"plugin", name, "error", err)
			if firstErr == nil {
				firstErr = errors.Wrap(err, "Kernel", "ShutdownAll", "plugin "+name+" shutdown")
			}
		}
		k.metrics.Metrics.ShutdownDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		plugin.Transition(p, plugin.StateStopped)
		k.metrics.Metrics.PluginState.WithLabelValues(name).Set(float64(plugin.StateStopped))
		k.logger.Info("plugin stopped", "plugin", name)
	}

	for i := len(k.started) - 1; i >= 0; i-- {
		delete(k.plugins, k.started[i].Name())
	}

	// the registry is released wholesale once the drain has finished;
	// shutdown is not designed to be invoked twice in one process run
	k.plugins = make(map[string]plugin.Plugin)
	k.order = nil
	k.started = nil
	k.initOrder = nil
	k.metrics.Metrics.PluginsRegistered.Set(float64(len(k.plugins)))
	k.metrics.Metrics.PluginsInitialized.Set(0)
	k.metrics.Metrics.PluginsStarted.Set(0)
	return firstErr
}

// Quit requests a graceful stop of the run loop. Callable by the host or
// any plugin, from any goroutine.
func (k *Kernel) Quit() {
	k.loop.Quit()
}

// Exec binds the termination signals, blocks on the run loop until quit,
// then performs the synchronous reverse-order shutdown before returning.
func (k *Kernel) Exec() error {
	unbind := k.loop.BindSignals()
	defer unbind()

	k.logger.Info("entering run loop", "plugins_started", len(k.started))
	k.loop.Run()
	k.logger.Info("run loop stopped, shutting down")

	return k.ShutdownAll()
}

// Run is the host convenience path: Initialize, StartupAll, Exec. It
// returns nil without running when the command line asked for an
// informational action.
func (k *Kernel) Run(args []string, autostart ...plugin.Plugin) error {
	proceed, err := k.Initialize(args, autostart...)
	if err != nil || !proceed {
		return err
	}
	if err := k.StartupAll(); err != nil {
		return err
	}
	return k.Exec()
}
