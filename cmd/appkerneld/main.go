// Package main implements the reference host for the appkernel plugin
// kernel. It registers the built-in plugins, autostarts the metrics
// server, and drives the kernel through initialization, startup, the run
// loop, and reverse-order shutdown.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/c360/appkernel/kernel"
	"github.com/c360/appkernel/plugin"
	"github.com/c360/appkernel/plugins/heartbeat"
	"github.com/c360/appkernel/plugins/metricserver"
	"github.com/c360/appkernel/plugins/natsbridge"
)

const (
	appName   = "appkerneld"
	version   = "0.1.0"
	buildTime = "dev"

	// numericVersion packs major.minor.patch the way the kernel stores it
	numericVersion = 0*10000 + 1*100 + 0
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := setupLogger(
		getEnv("APPKERNEL_LOG_LEVEL", "info"),
		getEnv("APPKERNEL_LOG_FORMAT", "json"),
	)
	slog.SetDefault(logger)

	k := kernel.New(kernel.Options{
		AppName:       appName,
		Version:       numericVersion,
		VersionString: fmt.Sprintf("%s version %s (%s)", appName, version, buildTime),
		Logger:        logger,
	})

	metrics := metricserver.New()
	for _, p := range []plugin.Plugin{
		natsbridge.New(),
		metrics,
		heartbeat.New(),
	} {
		if err := k.Register(p); err != nil {
			return err
		}
	}

	proceed, err := k.Initialize(os.Args[1:], metrics)
	if err != nil || !proceed {
		return err
	}

	applyLoggingConf(k.LoggingConf(), logger)

	logger.Info("starting plugins",
		"data_dir", k.DataDir(),
		"config_dir", k.ConfigDir())

	if err := k.StartupAll(); err != nil {
		return err
	}
	return k.Exec()
}
