// Package config implements the kernel's configuration-merge engine: it
// parses command-line arguments and a config file against the merged option
// schema, resolves the special directory options, synthesizes a missing
// default config file, and reconciles the three value layers (defaults,
// file, command line) into one resolved option map.
package config

import "github.com/c360/appkernel/option"

// Application-level option long names
const (
	OptHelp               = "help"
	OptVersion            = "version"
	OptPrintDefaultConfig = "print-default-config"
	OptDataDir            = "data-dir"
	OptConfigDir          = "config-dir"
	OptConfig             = "config"
	OptLogconf            = "logconf"
	OptPlugin             = "plugin"
)

// Default file names and directories
const (
	// DefaultConfigFileName is the only config file name the loader will
	// synthesize when absent
	DefaultConfigFileName = "config.ini"
	// DefaultLoggingConfName is the default logging configuration path,
	// resolved relative to the config directory
	DefaultLoggingConfName = "logging.json"
	// DefaultDataDirName is the default runtime data directory
	DefaultDataDirName = "data-dir"
	// DefaultConfigDirName is the default configuration directory
	DefaultConfigDirName = "config-dir"
)

// AppCLIGroup returns the application-level command-line-only options.
func AppCLIGroup() *option.Group {
	return option.NewGroup("").
		Add(option.Option{
			Name: OptHelp, Short: "h", Kind: option.KindBool, Switch: true,
			Description: "Print this help message and exit.",
		}).
		Add(option.Option{
			Name: OptVersion, Short: "v", Kind: option.KindBool, Switch: true,
			Description: "Print version information.",
		}).
		Add(option.Option{
			Name: OptPrintDefaultConfig, Kind: option.KindBool, Switch: true,
			Description: "Print default configuration template",
		}).
		Add(option.Option{
			Name: OptDataDir, Short: "d", Kind: option.KindPath,
			Description: "Directory containing program runtime data",
		}).
		Add(option.Option{
			Name: OptConfigDir, Kind: option.KindPath,
			Description: "Directory containing configuration files such as config.ini",
		}).
		Add(option.Option{
			Name: OptConfig, Short: "c", Kind: option.KindString,
			Default:     option.String(DefaultConfigFileName),
			Description: "Configuration file name relative to config-dir",
		}).
		Add(option.Option{
			Name: OptLogconf, Short: "l", Kind: option.KindString,
			Default:     option.String(DefaultLoggingConfName),
			Description: "Logging configuration file name/path for library users",
		})
}

// AppConfigGroup returns the application-level config-file options. Like
// every config-file option, these are also exposed on the command line.
func AppConfigGroup() *option.Group {
	return option.NewGroup("").
		Add(option.Option{
			Name: OptPlugin, Kind: option.KindStringList, Composing: true,
			Description: "Plugin(s) to enable, may be specified multiple times",
		})
}
