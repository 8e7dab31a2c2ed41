// Package heartbeat is a built-in plugin that publishes a periodic
// liveness beat over the NATS bridge. It exists mostly as the reference
// for plugin-to-plugin dependencies: it declares natsbridge in Requires()
// and obtains the bridge through the registry, never constructing it.
package heartbeat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/appkernel/option"
	"github.com/c360/appkernel/plugin"
	"github.com/c360/appkernel/plugins/natsbridge"
)

// PluginName is the registry name of the heartbeat
const PluginName = "heartbeat"

// Option long names
const (
	OptInterval = "heartbeat-interval"
	OptSubject  = "heartbeat-subject"
)

const (
	defaultInterval = 10
	defaultSubject  = "app.heartbeat"
)

type beat struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
}

// Plugin publishes a beat on a fixed interval. The publish itself is
// posted onto the run loop, so beats interleave with other loop work
// instead of racing it.
type Plugin struct {
	plugin.Base

	logger    *slog.Logger
	scheduler plugin.Scheduler
	bridge    *natsbridge.Plugin
	interval  time.Duration
	subject   string

	seq  uint64
	stop chan struct{}
	done chan struct{}
}

// New creates the heartbeat in state registered
func New() *Plugin {
	return &Plugin{Base: plugin.NewBase(PluginName)}
}

// Requires declares the bridge dependency; the kernel initializes it first
func (p *Plugin) Requires() []string {
	return []string{natsbridge.PluginName}
}

// DeclareOptions contributes the heartbeat's config-file options
func (p *Plugin) DeclareOptions(_, cfg *option.Group) {
	cfg.Add(option.Option{
		Name: OptInterval, Kind: option.KindUint32,
		Default:     option.Uint32(defaultInterval),
		Description: "Seconds between heartbeats",
	}).Add(option.Option{
		Name: OptSubject, Kind: option.KindString,
		Default:     option.String(defaultSubject),
		Description: "NATS subject heartbeats are published on",
	})
}

// Initialize resolves options and the bridge reference
func (p *Plugin) Initialize(host plugin.Host, opts option.Resolved) error {
	p.logger = host.Logger().With("plugin", PluginName)
	p.scheduler = host.Scheduler()

	dep, err := host.GetPlugin(natsbridge.PluginName)
	if err != nil {
		return err
	}
	bridge, ok := dep.(*natsbridge.Plugin)
	if !ok {
		return fmt.Errorf("plugin %q is not the NATS bridge", natsbridge.PluginName)
	}
	p.bridge = bridge

	p.interval = defaultInterval * time.Second
	if v, ok := opts.Uint32(OptInterval); ok && v > 0 {
		p.interval = time.Duration(v) * time.Second
	}
	p.subject = defaultSubject
	if v, ok := opts.String(OptSubject); ok {
		p.subject = v
	}
	return nil
}

// Startup begins the beat ticker
func (p *Plugin) Startup() error {
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.scheduler.Post(p.publish)
			}
		}
	}()

	p.logger.Info("heartbeat started", "interval", p.interval, "subject", p.subject)
	return nil
}

// publish runs on the loop goroutine
func (p *Plugin) publish() {
	p.seq++
	payload, err := json.Marshal(beat{Seq: p.seq, Time: time.Now().UTC()})
	if err != nil {
		p.logger.Error("heartbeat marshal failed", "error", err)
		return
	}
	conn := p.bridge.Conn()
	if conn == nil {
		p.logger.Warn("heartbeat skipped, bridge not connected", "seq", p.seq)
		return
	}
	if err := conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn("heartbeat publish failed", "seq", p.seq, "error", err)
		return
	}
	p.logger.Debug("heartbeat published", "seq", p.seq)
}

// Shutdown stops the ticker and waits for the publisher goroutine
func (p *Plugin) Shutdown() error {
	if p.stop == nil {
		return nil
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	return nil
}
