package kernel

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/appkernel/errors"
	"github.com/c360/appkernel/option"
	"github.com/c360/appkernel/plugin"
)

// testPlugin records lifecycle events into a shared journal so tests can
// assert ordering across plugins.
type testPlugin struct {
	plugin.Base

	journal  *[]string
	requires []string
	declare  func(cli, cfg *option.Group)

	initErr  error
	startErr error
	stopErr  error

	host plugin.Host
	opts option.Resolved

	onShutdown func(p *testPlugin)
}

func newTestPlugin(name string, journal *[]string) *testPlugin {
	return &testPlugin{Base: plugin.NewBase(name), journal: journal}
}

func (p *testPlugin) record(event string) {
	if p.journal != nil {
		*p.journal = append(*p.journal, event+":"+p.Name())
	}
}

func (p *testPlugin) Requires() []string { return p.requires }

func (p *testPlugin) DeclareOptions(cli, cfg *option.Group) {
	if p.declare != nil {
		p.declare(cli, cfg)
	}
}

func (p *testPlugin) Initialize(host plugin.Host, opts option.Resolved) error {
	p.record("init")
	p.host = host
	p.opts = opts
	return p.initErr
}

func (p *testPlugin) Startup() error {
	p.record("start")
	return p.startErr
}

func (p *testPlugin) Shutdown() error {
	p.record("stop")
	if p.onShutdown != nil {
		p.onShutdown(p)
	}
	return p.stopErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKernel() *Kernel {
	return New(Options{
		AppName:       "testkernel",
		VersionString: "testkernel 1.2.3",
		Logger:        quietLogger(),
		Out:           io.Discard,
		WarnWriter:    io.Discard,
	})
}

// initArgs builds the minimal argument list pointing the config machinery
// at a throwaway directory.
func initArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	return append([]string{"--config-dir", t.TempDir()}, extra...)
}

func TestRegister(t *testing.T) {
	k := newTestKernel()

	names := []string{"alpha", "beta", "gamma"}
	for _, n := range names {
		require.NoError(t, k.Register(newTestPlugin(n, nil)))
	}
	assert.Equal(t, len(names), k.PluginCount())

	for _, n := range names {
		assert.NotNil(t, k.FindPlugin(n))
	}
	assert.Nil(t, k.FindPlugin("missing"))
}

func TestRegister_DuplicateName(t *testing.T) {
	k := newTestKernel()
	first := newTestPlugin("alpha", nil)
	require.NoError(t, k.Register(first))

	err := k.Register(newTestPlugin("alpha", nil))
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateName(err))

	// registry unchanged: still one plugin, still the first instance
	assert.Equal(t, 1, k.PluginCount())
	assert.Same(t, first, k.FindPlugin("alpha").(*testPlugin))
}

func TestGetPlugin_NotFound(t *testing.T) {
	k := newTestKernel()
	_, err := k.GetPlugin("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsPluginNotFound(err))
}

func TestStartupPlugin_BeforeInitialize(t *testing.T) {
	k := newTestKernel()
	p := newTestPlugin("alpha", nil)
	require.NoError(t, k.Register(p))

	err := k.StartupPlugin(p)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidState(err))
	assert.Equal(t, plugin.StateRegistered, p.State())
}

func TestLifecycle_FullSequence(t *testing.T) {
	var journal []string
	k := newTestKernel()
	a := newTestPlugin("alpha", &journal)
	b := newTestPlugin("beta", &journal)
	c := newTestPlugin("gamma", &journal)
	for _, p := range []plugin.Plugin{a, b, c} {
		require.NoError(t, k.Register(p))
	}

	proceed, err := k.Initialize(initArgs(t), a, b, c)
	require.NoError(t, err)
	require.True(t, proceed)
	for _, p := range []*testPlugin{a, b, c} {
		assert.Equal(t, plugin.StateInitialized, p.State())
	}

	require.NoError(t, k.StartupAll())
	for _, p := range []*testPlugin{a, b, c} {
		assert.Equal(t, plugin.StateStarted, p.State())
	}

	require.NoError(t, k.ShutdownAll())
	for _, p := range []*testPlugin{a, b, c} {
		assert.Equal(t, plugin.StateStopped, p.State())
	}

	assert.Equal(t, []string{
		"init:alpha", "init:beta", "init:gamma",
		"start:alpha", "start:beta", "start:gamma",
		"stop:gamma", "stop:beta", "stop:alpha",
	}, journal)

	// the registry is released after shutdown
	assert.Equal(t, 0, k.PluginCount())
}

func TestShutdownAll_ReverseOrder(t *testing.T) {
	var journal []string
	k := newTestKernel()
	a := newTestPlugin("A", &journal)
	b := newTestPlugin("B", &journal)
	c := newTestPlugin("C", &journal)
	for _, p := range []plugin.Plugin{a, b, c} {
		require.NoError(t, k.Register(p))
	}

	proceed, err := k.Initialize(initArgs(t), a, b, c)
	require.NoError(t, err)
	require.True(t, proceed)
	require.NoError(t, k.StartupAll())

	journal = journal[:0]
	require.NoError(t, k.ShutdownAll())
	assert.Equal(t, []string{"stop:C", "stop:B", "stop:A"}, journal)
}

func TestShutdownAll_SiblingsVisibleDuringDrain(t *testing.T) {
	k := newTestKernel()
	a := newTestPlugin("alpha", nil)
	b := newTestPlugin("beta", nil)
	require.NoError(t, k.Register(a))
	require.NoError(t, k.Register(b))

	// beta shuts down first (reverse order) and must still see alpha
	// in the registry even though alpha is about to shut down too
	var sawSibling bool
	b.onShutdown = func(p *testPlugin) {
		sawSibling = k.FindPlugin("alpha") != nil
	}

	proceed, err := k.Initialize(initArgs(t), a, b)
	require.NoError(t, err)
	require.True(t, proceed)
	require.NoError(t, k.StartupAll())
	require.NoError(t, k.ShutdownAll())
	assert.True(t, sawSibling, "shutdown hooks must observe siblings as present")
}

func TestStartupAll_FailureUnwinds(t *testing.T) {
	var journal []string
	k := newTestKernel()
	a := newTestPlugin("A", &journal)
	b := newTestPlugin("B", &journal)
	c := newTestPlugin("C", &journal)
	failure := errors.New("bind failed")
	c.startErr = failure
	for _, p := range []plugin.Plugin{a, b, c} {
		require.NoError(t, k.Register(p))
	}

	proceed, err := k.Initialize(initArgs(t), a, b, c)
	require.NoError(t, err)
	require.True(t, proceed)

	err = k.StartupAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure), "original failure must surface")

	// A and B started, then were shut down in reverse before the error
	// was reported; C never started so its hook never ran
	assert.Equal(t, []string{
		"init:A", "init:B", "init:C",
		"start:A", "start:B", "start:C",
		"stop:B", "stop:A",
	}, journal)
}

func TestShutdownAll_FailureContinuesDrain(t *testing.T) {
	var journal []string
	k := newTestKernel()
	a := newTestPlugin("A", &journal)
	b := newTestPlugin("B", &journal)
	c := newTestPlugin("C", &journal)
	stopFailure := errors.New("drain stuck")
	c.stopErr = stopFailure
	for _, p := range []plugin.Plugin{a, b, c} {
		require.NoError(t, k.Register(p))
	}

	proceed, err := k.Initialize(initArgs(t), a, b, c)
	require.NoError(t, err)
	require.True(t, proceed)
	require.NoError(t, k.StartupAll())

	journal = journal[:0]
	err = k.ShutdownAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, stopFailure))

	// C failed first but B and A still drained
	assert.Equal(t, []string{"stop:C", "stop:B", "stop:A"}, journal)
	assert.Equal(t, 0, k.PluginCount())
}

func TestInitializePlugin_Idempotent(t *testing.T) {
	var journal []string
	k := newTestKernel()
	a := newTestPlugin("alpha", &journal)
	require.NoError(t, k.Register(a))

	// named via --plugin and in the autostart set: initialized once
	proceed, err := k.Initialize(initArgs(t, "--plugin", "alpha"), a)
	require.NoError(t, err)
	require.True(t, proceed)
	assert.Equal(t, []string{"init:alpha"}, journal)

	// an explicit repeat is a no-op too
	require.NoError(t, k.InitializePlugin(a))
	assert.Equal(t, []string{"init:alpha"}, journal)
}

func TestInitialize_PluginListSplitting(t *testing.T) {
	for _, arg := range []string{"A,B", "A B", "A\tB", "A, B"} {
		t.Run(fmt.Sprintf("%q", arg), func(t *testing.T) {
			var journal []string
			k := newTestKernel()
			a := newTestPlugin("A", &journal)
			b := newTestPlugin("B", &journal)
			require.NoError(t, k.Register(a))
			require.NoError(t, k.Register(b))

			proceed, err := k.Initialize(initArgs(t, "--plugin", arg), a, b)
			require.NoError(t, err)
			require.True(t, proceed)
			assert.Equal(t, []string{"init:A", "init:B"}, journal)
		})
	}
}

func TestInitialize_UnknownPluginFails(t *testing.T) {
	k := newTestKernel()
	_, err := k.Initialize(initArgs(t, "--plugin", "ghost"))
	require.Error(t, err)
	assert.True(t, errors.IsPluginNotFound(err))
}

func TestInitialize_DependenciesFirst(t *testing.T) {
	var journal []string
	k := newTestKernel()
	base := newTestPlugin("base", &journal)
	mid := newTestPlugin("mid", &journal)
	mid.requires = []string{"base"}
	top := newTestPlugin("top", &journal)
	top.requires = []string{"mid"}
	for _, p := range []plugin.Plugin{top, mid, base} {
		require.NoError(t, k.Register(p))
	}

	proceed, err := k.Initialize(initArgs(t, "--plugin", "top"))
	require.NoError(t, err)
	require.True(t, proceed)
	assert.Equal(t, []string{"init:base", "init:mid", "init:top"}, journal)
}

func TestInitialize_DependencyCycle(t *testing.T) {
	k := newTestKernel()
	a := newTestPlugin("A", nil)
	a.requires = []string{"B"}
	b := newTestPlugin("B", nil)
	b.requires = []string{"A"}
	require.NoError(t, k.Register(a))
	require.NoError(t, k.Register(b))

	_, err := k.Initialize(initArgs(t, "--plugin", "A"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDependencyCycle))
}

func TestInitialize_UnknownDependency(t *testing.T) {
	k := newTestKernel()
	a := newTestPlugin("A", nil)
	a.requires = []string{"ghost"}
	require.NoError(t, k.Register(a))

	_, err := k.Initialize(initArgs(t, "--plugin", "A"))
	require.Error(t, err)
	assert.True(t, errors.IsPluginNotFound(err))
}

func TestInitialize_PluginReceivesOwnOptions(t *testing.T) {
	k := newTestKernel()
	a := newTestPlugin("alpha", nil)
	a.declare = func(cli, cfg *option.Group) {
		cfg.Add(option.Option{
			Name: "alpha-limit", Kind: option.KindUint32,
			Default: option.Uint32(5), Description: "limit",
		})
	}
	b := newTestPlugin("beta", nil)
	b.declare = func(cli, cfg *option.Group) {
		cfg.Add(option.Option{
			Name: "beta-limit", Kind: option.KindUint32,
			Default: option.Uint32(9), Description: "limit",
		})
	}
	require.NoError(t, k.Register(a))
	require.NoError(t, k.Register(b))

	proceed, err := k.Initialize(initArgs(t, "--alpha-limit", "7"), a, b)
	require.NoError(t, err)
	require.True(t, proceed)

	v, ok := a.opts.Uint32("alpha-limit")
	require.True(t, ok)
	assert.Equal(t, uint32(7), v)
	// a plugin's slice holds only its own options
	assert.False(t, a.opts.Has("beta-limit"))
	assert.NotNil(t, a.host)
}

func TestInitialize_OptionCollisionAcrossPlugins(t *testing.T) {
	k := newTestKernel()
	declare := func(cli, cfg *option.Group) {
		cfg.Add(option.Option{Name: "shared-knob", Kind: option.KindBool, Description: "knob"})
	}
	a := newTestPlugin("alpha", nil)
	a.declare = declare
	b := newTestPlugin("beta", nil)
	b.declare = declare
	require.NoError(t, k.Register(a))
	require.NoError(t, k.Register(b))

	_, err := k.Initialize(initArgs(t))
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateName(err))
}

func TestInitialize_InformationalActions(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		var out bytes.Buffer
		k := New(Options{
			AppName:       "testkernel",
			VersionString: "testkernel 1.2.3",
			Logger:        quietLogger(),
			Out:           &out,
			WarnWriter:    io.Discard,
		})
		proceed, err := k.Initialize([]string{"--version"})
		require.NoError(t, err)
		assert.False(t, proceed)
		assert.Equal(t, "testkernel 1.2.3\n", out.String())
	})

	t.Run("print-default-config", func(t *testing.T) {
		var out bytes.Buffer
		k := New(Options{
			AppName:    "testkernel",
			Logger:     quietLogger(),
			Out:        &out,
			WarnWriter: io.Discard,
		})
		a := newTestPlugin("alpha", nil)
		a.declare = func(cli, cfg *option.Group) {
			cfg.Add(option.Option{
				Name: "alpha-limit", Kind: option.KindUint32,
				Default: option.Uint32(5), Description: "alpha limit",
			})
		}
		require.NoError(t, k.Register(a))

		proceed, err := k.Initialize([]string{"--print-default-config"})
		require.NoError(t, err)
		assert.False(t, proceed)
		assert.Contains(t, out.String(), "# alpha limit (alpha)")
		assert.Contains(t, out.String(), "# alpha-limit = 5")
		assert.Contains(t, out.String(), "# plugin = ")
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		k := New(Options{
			AppName:    "testkernel",
			Logger:     quietLogger(),
			Out:        &out,
			WarnWriter: io.Discard,
		})
		proceed, err := k.Initialize([]string{"--help"})
		require.NoError(t, err)
		assert.False(t, proceed)
		assert.Contains(t, out.String(), "Usage: testkernel")
		assert.Contains(t, out.String(), "--print-default-config")
	})
}

func TestInitialize_StartupFromLoopQuit(t *testing.T) {
	k := newTestKernel()
	a := newTestPlugin("alpha", nil)
	require.NoError(t, k.Register(a))

	proceed, err := k.Initialize(initArgs(t), a)
	require.NoError(t, err)
	require.True(t, proceed)
	require.NoError(t, k.StartupAll())

	// a plugin-visible Quit stops Exec, which then drains
	go k.Quit()
	require.NoError(t, k.Exec())
	assert.Equal(t, plugin.StateStopped, a.State())
	assert.Equal(t, 0, k.PluginCount())
}

func TestRun_InformationalShortCircuit(t *testing.T) {
	k := newTestKernel()
	require.NoError(t, k.Register(newTestPlugin("alpha", nil)))
	// --version must not enter the run loop; Run returns promptly
	require.NoError(t, k.Run([]string{"--version"}))
	assert.Equal(t, 1, k.PluginCount(), "registry untouched by informational action")
}
