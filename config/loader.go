package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360/appkernel/errors"
	"github.com/c360/appkernel/option"
)

// Action tells the caller what the parsed command line asked for. Anything
// other than ActionRun means "print and do not enter the run loop".
type Action int

const (
	// ActionRun proceeds to plugin initialization and the run loop
	ActionRun Action = iota
	// ActionHelp prints the full option help
	ActionHelp
	// ActionVersion prints the version string
	ActionVersion
	// ActionPrintDefaultConfig prints the default-config template
	ActionPrintDefaultConfig
)

// Result is the outcome of a full configuration merge.
type Result struct {
	// Action is what the command line asked for
	Action Action
	// Options is the resolved option map: defaults overlaid with file
	// values overlaid with command-line values
	Options option.Resolved
	// CLISet holds the long names explicitly supplied on the command line
	CLISet map[string]bool
	// FileSet holds the long names supplied by the config file
	FileSet map[string]bool
	// Redundant lists config keys redundantly set to their default
	Redundant []string
	// Resolved paths
	DataDir     string
	ConfigDir   string
	ConfigFile  string
	LoggingConf string
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// AppName appears in help output
	AppName string
	// DefaultDataDir overrides the default runtime data directory
	DefaultDataDir string
	// DefaultConfigDir overrides the default configuration directory
	DefaultConfigDir string
	// WarnWriter receives the redundant-default diagnostic (default
	// os.Stderr)
	WarnWriter io.Writer
	// HelpWriter receives --help output (default os.Stdout)
	HelpWriter io.Writer
	// Logger receives non-fatal merge warnings (default slog.Default())
	Logger *slog.Logger
}

// Loader merges command-line and config-file values against the kernel's
// merged option schemas. It is built once per process, after every plugin
// has declared its options.
type Loader struct {
	full *option.Schema
	cfg  *option.Schema
	opts LoaderOptions
}

// NewLoader creates a loader over the full schema (every option) and the
// config-only sub-schema (options legal in the config file).
func NewLoader(full, cfg *option.Schema, opts LoaderOptions) *Loader {
	if opts.AppName == "" {
		opts.AppName = "appkernel"
	}
	if opts.DefaultDataDir == "" {
		opts.DefaultDataDir = DefaultDataDirName
	}
	if opts.DefaultConfigDir == "" {
		opts.DefaultConfigDir = DefaultConfigDirName
	}
	if opts.WarnWriter == nil {
		opts.WarnWriter = os.Stderr
	}
	if opts.HelpWriter == nil {
		opts.HelpWriter = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{full: full, cfg: cfg, opts: opts}
}

// ConfigSchema returns the config-only sub-schema, used for template
// rendering.
func (l *Loader) ConfigSchema() *option.Schema { return l.cfg }

// PrintHelp writes the full option help
func (l *Loader) PrintHelp() {
	RenderHelp(l.opts.HelpWriter, l.full, l.opts.AppName)
}

// Load runs the full merge: command line first, then path resolution, then
// the config file (synthesized if it is the absent default), then layering
// and redundant-default detection.
func (l *Loader) Load(args []string) (*Result, error) {
	cliValues, err := parseCommandLine(l.full, args, l.PrintHelp)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Action:  ActionRun,
		CLISet:  make(map[string]bool, len(cliValues)),
		FileSet: make(map[string]bool),
	}
	for name := range cliValues {
		res.CLISet[name] = true
	}

	switch {
	case boolSet(cliValues, OptHelp):
		res.Action = ActionHelp
		return res, nil
	case boolSet(cliValues, OptVersion):
		res.Action = ActionVersion
		return res, nil
	case boolSet(cliValues, OptPrintDefaultConfig):
		res.Action = ActionPrintDefaultConfig
		return res, nil
	}

	if err := l.resolvePaths(cliValues, res); err != nil {
		return nil, err
	}

	fileValues, err := l.loadConfigFile(res)
	if err != nil {
		return nil, err
	}
	for name := range fileValues {
		res.FileSet[name] = true
	}

	res.Redundant = detectRedundantDefaults(l.cfg, fileValues, func(name, kind string) {
		l.opts.Logger.Warn("config item type is not registered for default comparison",
			"option", name, "kind", kind)
	})
	writeRedundantWarning(l.opts.WarnWriter, res.Redundant)

	res.Options = l.merge(cliValues, fileValues)
	return res, nil
}

// resolvePaths fixes data-dir, config-dir, logconf and the config file
// path. Relative data-dir/config-dir resolve against the current working
// directory; relative logconf/config resolve against the config directory.
func (l *Loader) resolvePaths(cliValues map[string]option.Value, res *Result) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "Loader", "resolvePaths", "working directory lookup")
	}

	res.DataDir = l.opts.DefaultDataDir
	if v, ok := cliValues[OptDataDir]; ok {
		res.DataDir = v.Text()
	}
	if !filepath.IsAbs(res.DataDir) {
		res.DataDir = filepath.Join(cwd, res.DataDir)
	}

	res.ConfigDir = l.opts.DefaultConfigDir
	if v, ok := cliValues[OptConfigDir]; ok {
		res.ConfigDir = v.Text()
	}
	if !filepath.IsAbs(res.ConfigDir) {
		res.ConfigDir = filepath.Join(cwd, res.ConfigDir)
	}

	logconf := DefaultLoggingConfName
	if v, ok := cliValues[OptLogconf]; ok {
		logconf = v.Text()
	}
	if !filepath.IsAbs(logconf) {
		logconf = filepath.Join(res.ConfigDir, logconf)
	}
	res.LoggingConf = logconf

	configFile := DefaultConfigFileName
	if v, ok := cliValues[OptConfig]; ok {
		configFile = v.Text()
	}
	if !filepath.IsAbs(configFile) {
		configFile = filepath.Join(res.ConfigDir, configFile)
	}
	res.ConfigFile = configFile
	return nil
}

// loadConfigFile parses the resolved config file, synthesizing it from the
// default-config template when the default file is absent. A missing
// non-default file is an error.
func (l *Loader) loadConfigFile(res *Result) (map[string]option.Value, error) {
	if _, err := os.Stat(res.ConfigFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "Loader", "loadConfigFile", "config file stat")
		}
		if res.ConfigFile != filepath.Join(res.ConfigDir, DefaultConfigFileName) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrConfigFileMissing, res.ConfigFile),
				"Loader", "loadConfigFile", "config file lookup")
		}
		l.opts.Logger.Info("config file absent, writing default template", "path", res.ConfigFile)
		if err := WriteDefaultConfigFile(res.ConfigFile, l.cfg); err != nil {
			return nil, err
		}
	}
	return loadFile(res.ConfigFile, l.cfg)
}

// merge layers the three value sources in ascending priority: schema
// defaults, config-file values, command-line values. File values never
// overwrite command-line values; composing options concatenate command-line
// values before file values.
func (l *Loader) merge(cliValues, fileValues map[string]option.Value) option.Resolved {
	resolved := make(option.Resolved, l.full.Len())

	for _, opt := range l.full.Options() {
		if opt.HasDefault() {
			resolved[opt.Name] = opt.Default
		}
	}

	for name, v := range fileValues {
		if _, onCLI := cliValues[name]; onCLI {
			continue
		}
		resolved[name] = v
	}

	for name, v := range cliValues {
		opt, ok := l.full.Lookup(name)
		if ok && opt.Composing && opt.Kind == option.KindStringList {
			if fv, inFile := fileValues[name]; inFile {
				resolved[name] = option.StringList(append(v.List(), fv.List()...)...)
				continue
			}
		}
		resolved[name] = v
	}

	return resolved
}

func boolSet(values map[string]option.Value, name string) bool {
	v, ok := values[name]
	return ok && v.Kind() == option.KindBool && v.BoolVal()
}
