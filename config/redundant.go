package config

import (
	"fmt"
	"io"

	"github.com/c360/appkernel/option"
)

// wrapColumn is the width at which the redundant key list wraps
const wrapColumn = 65

// detectRedundantDefaults returns, in schema order, the names of config
// options whose file-supplied value compares equal to the declared default.
// Options whose kind has no defined equality are reported through warnFn
// and excluded rather than failing the merge.
func detectRedundantDefaults(cfg *option.Schema, fileValues map[string]option.Value, warnFn func(name, kind string)) []string {
	var redundant []string
	for _, opt := range cfg.Options() {
		if !opt.HasDefault() {
			continue
		}
		fv, supplied := fileValues[opt.Name]
		if !supplied {
			continue
		}
		if !opt.Kind.Comparable() {
			if warnFn != nil {
				warnFn(opt.Name, opt.Kind.String())
			}
			continue
		}
		if fv.Equal(opt.Default) {
			redundant = append(redundant, opt.Name)
		}
	}
	return redundant
}

// writeRedundantWarning emits the single multi-line diagnostic listing all
// redundantly-defaulted keys, comma-separated and wrapped.
func writeRedundantWarning(w io.Writer, keys []string) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintln(w, "appkernel: warning: the following configuration items in the config file are redundantly set to")
	fmt.Fprintln(w, "         their default value:")
	fmt.Fprint(w, "             ")
	charsOnLine := 0
	for i, key := range keys {
		fmt.Fprint(w, key)
		if i+1 != len(keys) {
			fmt.Fprint(w, ", ")
		}
		if charsOnLine += len(key); charsOnLine > wrapColumn {
			fmt.Fprint(w, "\n             ")
			charsOnLine = 0
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "         Explicit values will override future changes to application defaults. Consider commenting out or")
	fmt.Fprintln(w, "         removing these items.")
}
