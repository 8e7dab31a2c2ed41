package option

import (
	"fmt"

	"github.com/c360/appkernel/errors"
)

// Option describes one configuration option in the merged schema.
type Option struct {
	// Name is the long name, unique across the merged schema
	Name string
	// Short is an optional single-letter command-line alias
	Short string
	// Kind is the semantic value type
	Kind Kind
	// Default is the declared default; a zero Value means no default
	Default Value
	// Description is the human-readable help text; newlines are preserved
	// and re-prefixed in the default-config template
	Description string
	// Plugin is the owning plugin name, stamped by the schema builder.
	// Empty for application-level options.
	Plugin string
	// Switch marks a boolean flag that takes no argument on the command line
	Switch bool
	// Composing marks a repeatable option whose values accumulate
	Composing bool
}

// HasDefault reports whether the option declares a default value
func (o Option) HasDefault() bool { return !o.Default.IsZero() }

// Group collects the options one plugin declares. Plugins receive two
// groups from the schema builder: one for command-line-only options and one
// for config-file options (which are also exposed on the command line).
type Group struct {
	owner string
	opts  []Option
}

// NewGroup creates an option group owned by the named plugin. An empty
// owner is used for application-level options.
func NewGroup(owner string) *Group {
	return &Group{owner: owner}
}

// Owner returns the owning plugin name
func (g *Group) Owner() string { return g.owner }

// Add appends an option to the group and returns the group for chaining.
// Name collisions are detected later, when groups are merged into a Schema.
func (g *Group) Add(opt Option) *Group {
	if opt.Plugin == "" {
		opt.Plugin = g.owner
	}
	g.opts = append(g.opts, opt)
	return g
}

// Options returns the declared options in insertion order
func (g *Group) Options() []Option {
	return append([]Option(nil), g.opts...)
}

// Len returns the number of declared options
func (g *Group) Len() int { return len(g.opts) }

// Schema is a merged, ordered collection of options keyed by long name.
// No two options may share a long name; merging a colliding group fails.
type Schema struct {
	opts  []Option
	index map[string]int
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{index: make(map[string]int)}
}

// Add inserts a single option, failing on a long-name collision.
func (s *Schema) Add(opt Option) error {
	if opt.Name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: option with empty name", errors.ErrInvalidOptionValue),
			"Schema", "Add", "name validation")
	}
	if prev, exists := s.index[opt.Name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: option %q declared by %q and %q",
				errors.ErrDuplicateOption, opt.Name, s.opts[prev].Plugin, opt.Plugin),
			"Schema", "Add", "duplicate option check")
	}
	s.index[opt.Name] = len(s.opts)
	s.opts = append(s.opts, opt)
	return nil
}

// AddGroup merges every option of a group into the schema.
func (s *Schema) AddGroup(g *Group) error {
	for _, opt := range g.opts {
		if err := s.Add(opt); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the option with the given long name
func (s *Schema) Lookup(name string) (Option, bool) {
	i, ok := s.index[name]
	if !ok {
		return Option{}, false
	}
	return s.opts[i], true
}

// Options returns all options in insertion order
func (s *Schema) Options() []Option {
	return append([]Option(nil), s.opts...)
}

// Len returns the number of options in the schema
func (s *Schema) Len() int { return len(s.opts) }

// Resolved maps option long names to their final values after merging
// defaults, config-file values and command-line values.
type Resolved map[string]Value

// Has reports whether a value is present for the named option
func (r Resolved) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Value returns the raw value for the named option
func (r Resolved) Value(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// String returns the named option as a string
func (r Resolved) String(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindString {
		return "", false
	}
	return v.Text(), true
}

// Path returns the named option as a path
func (r Resolved) Path(name string) (string, bool) {
	v, ok := r[name]
	if !ok || (v.Kind() != KindPath && v.Kind() != KindString) {
		return "", false
	}
	return v.Text(), true
}

// Bool returns the named option as a bool
func (r Resolved) Bool(name string) (bool, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindBool {
		return false, false
	}
	return v.BoolVal(), true
}

// Uint32 returns the named option as a uint32
func (r Resolved) Uint32(name string) (uint32, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindUint32 {
		return 0, false
	}
	return v.Uint32Val(), true
}

// Uint64 returns the named option as a uint64
func (r Resolved) Uint64(name string) (uint64, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindUint64 {
		return 0, false
	}
	return v.Uint64Val(), true
}

// Int returns the named option as a signed integer
func (r Resolved) Int(name string) (int64, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindInt {
		return 0, false
	}
	return v.IntVal(), true
}

// Float returns the named option as a float
func (r Resolved) Float(name string) (float64, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindFloat {
		return 0, false
	}
	return v.FloatVal(), true
}

// StringList returns the named option as a string list
func (r Resolved) StringList(name string) ([]string, bool) {
	v, ok := r[name]
	if !ok || v.Kind() != KindStringList {
		return nil, false
	}
	return v.List(), true
}
