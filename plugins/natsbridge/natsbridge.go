// Package natsbridge is a built-in plugin that owns the process's NATS
// connection. Sibling plugins obtain the bridge through the registry and
// publish or subscribe over its connection; the bridge connects at startup
// and drains at shutdown.
package natsbridge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/appkernel/option"
	"github.com/c360/appkernel/plugin"
)

// PluginName is the registry name of the bridge
const PluginName = "natsbridge"

// Option long names
const (
	OptURL           = "nats-url"
	OptClientName    = "nats-name"
	OptMaxReconnects = "nats-max-reconnects"
	OptReconnectWait = "nats-reconnect-wait"
)

const defaultURL = "nats://127.0.0.1:4222"

// Plugin connects to a NATS server on startup and exposes the connection
// to sibling plugins.
type Plugin struct {
	plugin.Base

	logger        *slog.Logger
	url           string
	clientName    string
	maxReconnects uint32
	reconnectWait time.Duration

	conn *nats.Conn
}

// New creates the bridge in state registered
func New() *Plugin {
	return &Plugin{Base: plugin.NewBase(PluginName)}
}

// DeclareOptions contributes the bridge's config-file options
func (p *Plugin) DeclareOptions(_, cfg *option.Group) {
	cfg.Add(option.Option{
		Name: OptURL, Kind: option.KindString,
		Default:     option.String(defaultURL),
		Description: "NATS server URL to connect to",
	}).Add(option.Option{
		Name: OptClientName, Kind: option.KindString,
		Description: "Client name reported to the NATS server",
	}).Add(option.Option{
		Name: OptMaxReconnects, Kind: option.KindUint32,
		Default:     option.Uint32(60),
		Description: "Maximum reconnection attempts before giving up",
	}).Add(option.Option{
		Name: OptReconnectWait, Kind: option.KindUint32,
		Default:     option.Uint32(2),
		Description: "Seconds to wait between reconnection attempts",
	})
}

// Initialize captures the resolved options
func (p *Plugin) Initialize(host plugin.Host, opts option.Resolved) error {
	p.logger = host.Logger().With("plugin", PluginName)

	p.url = defaultURL
	if v, ok := opts.String(OptURL); ok {
		p.url = v
	}
	p.clientName, _ = opts.String(OptClientName)
	if v, ok := opts.Uint32(OptMaxReconnects); ok {
		p.maxReconnects = v
	}
	p.reconnectWait = 2 * time.Second
	if v, ok := opts.Uint32(OptReconnectWait); ok {
		p.reconnectWait = time.Duration(v) * time.Second
	}
	return nil
}

// Startup connects to the NATS server
func (p *Plugin) Startup() error {
	connOpts := []nats.Option{
		nats.MaxReconnects(int(p.maxReconnects)),
		nats.ReconnectWait(p.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			p.logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			p.logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if p.clientName != "" {
		connOpts = append(connOpts, nats.Name(p.clientName))
	}

	conn, err := nats.Connect(p.url, connOpts...)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", p.url, err)
	}
	p.conn = conn
	p.logger.Info("nats connected", "url", conn.ConnectedUrl())
	return nil
}

// Shutdown drains the connection. Drain failures are logged, not returned;
// the drain of sibling plugins must not be interrupted.
func (p *Plugin) Shutdown() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Error("nats drain failed", "error", err)
		p.conn.Close()
	}
	p.conn = nil
	return nil
}

// Conn returns the live connection, or nil before startup. Sibling plugins
// hold this as a non-owning reference; the bridge closes it.
func (p *Plugin) Conn() *nats.Conn {
	return p.conn
}
