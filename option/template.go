package option

import (
	"fmt"
	"io"
	"strings"
)

// WriteDefaultConfig renders the canonical default-config template for a
// config schema. Every option becomes a commented block: its description
// (newlines re-prefixed with the comment marker), the owning plugin name if
// known, then a commented-out "name = value" line. Options without a
// default render a blank value; boolean switches render "false".
//
// The output is used both for --print-default-config and to synthesize a
// missing default config file, and re-parses through the same schema to the
// declared defaults.
func WriteDefaultConfig(w io.Writer, cfg *Schema) error {
	for _, opt := range cfg.Options() {
		if opt.Description != "" {
			desc := strings.ReplaceAll(opt.Description, "\n", "\n# ")
			if opt.Plugin != "" {
				desc += " (" + opt.Plugin + ")"
			}
			if _, err := fmt.Fprintf(w, "# %s\n", desc); err != nil {
				return err
			}
		}

		var line string
		switch {
		case opt.HasDefault():
			line = fmt.Sprintf("# %s = %s", opt.Name, opt.Default.ConfigString())
		case opt.Switch || opt.Kind == KindBool:
			line = fmt.Sprintf("# %s = false", opt.Name)
		default:
			line = fmt.Sprintf("# %s = ", opt.Name)
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", line); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfigString renders the default-config template to a string.
func DefaultConfigString(cfg *Schema) string {
	var sb strings.Builder
	_ = WriteDefaultConfig(&sb, cfg)
	return sb.String()
}
