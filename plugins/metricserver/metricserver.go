// Package metricserver is a built-in plugin serving the kernel's metrics
// registry and a liveness endpoint over HTTP.
package metricserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/c360/appkernel/metric"
	"github.com/c360/appkernel/option"
	"github.com/c360/appkernel/plugin"
)

// PluginName is the registry name of the metrics server
const PluginName = "metricserver"

// Option long names
const (
	OptAddr = "metrics-addr"
	OptPath = "metrics-path"
)

const (
	defaultAddr     = ":8080"
	defaultPath     = "/metrics"
	shutdownTimeout = 5 * time.Second
)

// Plugin serves /metrics and /healthz on a dedicated listener.
type Plugin struct {
	plugin.Base

	logger   *slog.Logger
	registry *metric.Registry
	addr     string
	path     string
	server   *http.Server
}

// New creates the metrics server in state registered
func New() *Plugin {
	return &Plugin{Base: plugin.NewBase(PluginName)}
}

// DeclareOptions contributes the server's config-file options
func (p *Plugin) DeclareOptions(_, cfg *option.Group) {
	cfg.Add(option.Option{
		Name: OptAddr, Kind: option.KindString,
		Default:     option.String(defaultAddr),
		Description: "Listen address for the metrics HTTP endpoint",
	}).Add(option.Option{
		Name: OptPath, Kind: option.KindString,
		Default:     option.String(defaultPath),
		Description: "URL path the metrics are exposed on",
	})
}

// Initialize captures the resolved options and the kernel registry
func (p *Plugin) Initialize(host plugin.Host, opts option.Resolved) error {
	p.logger = host.Logger().With("plugin", PluginName)
	p.registry = host.Metrics()

	p.addr = defaultAddr
	if v, ok := opts.String(OptAddr); ok {
		p.addr = v
	}
	p.path = defaultPath
	if v, ok := opts.String(OptPath); ok {
		p.path = v
	}
	return nil
}

// Startup begins serving. Listener failures after startup are logged; the
// kernel is not torn down for a scrape endpoint.
func (p *Plugin) Startup() error {
	mux := http.NewServeMux()
	mux.Handle(p.path, p.registry.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	p.server = &http.Server{
		Addr:              p.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("metrics server failed", "addr", p.addr, "error", err)
		}
	}()

	p.logger.Info("metrics server listening", "addr", p.addr, "path", p.path)
	return nil
}

// Shutdown stops the listener gracefully
func (p *Plugin) Shutdown() error {
	if p.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		p.logger.Error("metrics server shutdown failed", "error", err)
	}
	p.server = nil
	return nil
}
