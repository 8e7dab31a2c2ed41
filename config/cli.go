package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/c360/appkernel/errors"
	"github.com/c360/appkernel/option"
)

// flagValue adapts one schema option to the flag package. The same
// instance is registered under the long name and the short alias, so either
// spelling lands in the same slot.
type flagValue struct {
	opt    option.Option
	values []option.Value
	set    bool
}

func (fv *flagValue) String() string {
	if fv == nil || !fv.set || len(fv.values) == 0 {
		return ""
	}
	return fv.values[len(fv.values)-1].ConfigString()
}

func (fv *flagValue) Set(s string) error {
	v, err := option.Parse(fv.opt.Kind, s)
	if err != nil {
		return err
	}
	if fv.opt.Composing && fv.set {
		fv.values = append(fv.values, v)
	} else {
		fv.values = []option.Value{v}
	}
	fv.set = true
	return nil
}

// IsBoolFlag lets bool options and switches be given without an argument
func (fv *flagValue) IsBoolFlag() bool {
	return fv.opt.Kind == option.KindBool
}

// value collapses the accumulated occurrences into one Value. Composing
// list options concatenate; everything else keeps the last occurrence.
func (fv *flagValue) value() option.Value {
	if len(fv.values) == 1 {
		return fv.values[0]
	}
	if fv.opt.Kind == option.KindStringList {
		var all []string
		for _, v := range fv.values {
			all = append(all, v.List()...)
		}
		return option.StringList(all...)
	}
	return fv.values[len(fv.values)-1]
}

// parseCommandLine parses args against the full schema and returns the
// values explicitly supplied on the command line. Defaults are not applied
// here; layering happens in the loader so that file values can be merged
// without overwriting command-line values.
func parseCommandLine(full *option.Schema, args []string, usage func()) (map[string]option.Value, error) {
	fs := flag.NewFlagSet("appkernel", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if usage != nil {
		fs.Usage = usage
	}

	slots := make(map[string]*flagValue, full.Len())
	for _, opt := range full.Options() {
		fv := &flagValue{opt: opt}
		slots[opt.Name] = fv
		fs.Var(fv, opt.Name, opt.Description)
		if opt.Short != "" {
			fs.Var(fv, opt.Short, opt.Description)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrUnknownOption, err),
			"config", "parseCommandLine", "argument parsing")
	}

	out := make(map[string]option.Value)
	for name, fv := range slots {
		if fv.set {
			out[name] = fv.value()
		}
	}
	return out, nil
}

// RenderHelp writes the full option help, grouped by owning plugin the way
// the schema was assembled: application options first, then one section per
// plugin in registration order.
func RenderHelp(w io.Writer, full *option.Schema, appName string) {
	fmt.Fprintf(w, "Usage: %s [options]\n", appName)

	sections := []string{""}
	seen := map[string]bool{"": true}
	for _, opt := range full.Options() {
		if !seen[opt.Plugin] {
			seen[opt.Plugin] = true
			sections = append(sections, opt.Plugin)
		}
	}

	for _, owner := range sections {
		if owner == "" {
			fmt.Fprintf(w, "\nApplication Options:\n")
		} else {
			fmt.Fprintf(w, "\nOptions for %s:\n", owner)
		}
		for _, opt := range full.Options() {
			if opt.Plugin != owner {
				continue
			}
			names := "--" + opt.Name
			if opt.Short != "" {
				names = "-" + opt.Short + ", " + names
			}
			desc := strings.ReplaceAll(opt.Description, "\n", "\n"+strings.Repeat(" ", 30))
			if opt.HasDefault() {
				desc += fmt.Sprintf(" (default: %s)", opt.Default.ConfigString())
			}
			fmt.Fprintf(w, "  %-26s  %s\n", names, desc)
		}
	}
}
