package option

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/c360/appkernel/errors"
)

// Kind identifies the semantic type of an option value. The set is closed:
// equality, parsing and rendering are defined per variant, so adding a type
// means adding a case here rather than registering a runtime comparator.
type Kind int

const (
	// KindInvalid is the zero Kind; a Value of this kind carries no data
	// and never compares equal to anything, including itself.
	KindInvalid Kind = iota
	// KindString is a free-form string
	KindString
	// KindBool is a boolean
	KindBool
	// KindUint32 is an unsigned 32-bit integer
	KindUint32
	// KindUint64 is an unsigned 64-bit integer
	KindUint64
	// KindInt is a signed integer
	KindInt
	// KindFloat is a double-precision float
	KindFloat
	// KindStringList is an ordered list of strings
	KindStringList
	// KindPath is a filesystem path, compared textually
	KindPath
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStringList:
		return "string-list"
	case KindPath:
		return "path"
	default:
		return "invalid"
	}
}

// Comparable reports whether values of this kind have a defined equality.
// Only KindInvalid does not.
func (k Kind) Comparable() bool {
	return k > KindInvalid && k <= KindPath
}

// Value is a tagged variant holding one configuration value. The zero Value
// has KindInvalid and means "no value".
type Value struct {
	kind Kind
	str  string
	b    bool
	u    uint64
	i    int64
	f    float64
	list []string
}

// String constructs a string Value
func String(v string) Value { return Value{kind: KindString, str: v} }

// Bool constructs a bool Value
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Uint32 constructs an unsigned 32-bit Value
func Uint32(v uint32) Value { return Value{kind: KindUint32, u: uint64(v)} }

// Uint64 constructs an unsigned 64-bit Value
func Uint64(v uint64) Value { return Value{kind: KindUint64, u: v} }

// Int constructs a signed integer Value
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float constructs a float Value
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// StringList constructs a string-list Value
func StringList(v ...string) Value {
	return Value{kind: KindStringList, list: append([]string(nil), v...)}
}

// Path constructs a path Value
func Path(v string) Value { return Value{kind: KindPath, str: v} }

// Kind returns the variant tag
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the Value carries no data
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Text returns the string payload of a string or path Value
func (v Value) Text() string { return v.str }

// BoolVal returns the bool payload
func (v Value) BoolVal() bool { return v.b }

// Uint32Val returns the uint32 payload
func (v Value) Uint32Val() uint32 { return uint32(v.u) }

// Uint64Val returns the uint64 payload
func (v Value) Uint64Val() uint64 { return v.u }

// IntVal returns the signed integer payload
func (v Value) IntVal() int64 { return v.i }

// FloatVal returns the float payload
func (v Value) FloatVal() float64 { return v.f }

// List returns a copy of the string-list payload
func (v Value) List() []string { return append([]string(nil), v.list...) }

// Equal reports structural equality between two values. Values of different
// kinds are never equal, and KindInvalid values are never equal to anything.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || !v.kind.Comparable() {
		return false
	}
	switch v.kind {
	case KindString, KindPath:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindUint32, KindUint64:
		return v.u == o.u
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindStringList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ConfigString renders the value as a config-file literal. The rendering is
// chosen so that the default-config template re-parses to an equal Value:
// strings and paths are quoted, lists use bracket syntax.
func (v Value) ConfigString() string {
	switch v.kind {
	case KindString, KindPath:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindUint32, KindUint64:
		return strconv.FormatUint(v.u, 10)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindStringList:
		parts := make([]string, len(v.list))
		for i, s := range v.list {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// String implements fmt.Stringer
func (v Value) String() string { return v.ConfigString() }

// Parse converts command-line text into a Value of the given kind. List
// kinds yield a single-element list; composing options accumulate across
// repeated flags at merge time.
func Parse(k Kind, text string) (Value, error) {
	switch k {
	case KindString:
		return String(text), nil
	case KindPath:
		return Path(text), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, parseErr(k, text)
		}
		return Bool(b), nil
	case KindUint32:
		u, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return Value{}, parseErr(k, text)
		}
		return Uint32(uint32(u)), nil
	case KindUint64:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, parseErr(k, text)
		}
		return Uint64(u), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, parseErr(k, text)
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, parseErr(k, text)
		}
		return Float(f), nil
	case KindStringList:
		return StringList(text), nil
	default:
		return Value{}, errors.WrapInvalid(
			fmt.Errorf("%w: kind %s has no parser", errors.ErrInvalidOptionValue, k),
			"option", "Parse", "kind check")
	}
}

// FromConfig converts a decoded config-file value (string, bool, int64,
// float64 or []any as produced by the TOML decoder) into a Value of the
// given kind.
func FromConfig(k Kind, raw any) (Value, error) {
	switch k {
	case KindString:
		if s, ok := raw.(string); ok {
			return String(s), nil
		}
	case KindPath:
		if s, ok := raw.(string); ok {
			return Path(s), nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	case KindUint32:
		if i, ok := raw.(int64); ok && i >= 0 && i <= math.MaxUint32 {
			return Uint32(uint32(i)), nil
		}
	case KindUint64:
		if i, ok := raw.(int64); ok && i >= 0 {
			return Uint64(uint64(i)), nil
		}
	case KindInt:
		if i, ok := raw.(int64); ok {
			return Int(i), nil
		}
	case KindFloat:
		switch n := raw.(type) {
		case float64:
			return Float(n), nil
		case int64:
			return Float(float64(n)), nil
		}
	case KindStringList:
		switch l := raw.(type) {
		case []any:
			out := make([]string, 0, len(l))
			for _, e := range l {
				s, ok := e.(string)
				if !ok {
					return Value{}, convertErr(k, raw)
				}
				out = append(out, s)
			}
			return StringList(out...), nil
		case string:
			return StringList(l), nil
		}
	}
	return Value{}, convertErr(k, raw)
}

func parseErr(k Kind, text string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %q is not a valid %s", errors.ErrInvalidOptionValue, text, k),
		"option", "Parse", "literal conversion")
}

func convertErr(k Kind, raw any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %v (%T) is not a valid %s", errors.ErrInvalidOptionValue, raw, raw, k),
		"option", "FromConfig", "config value conversion")
}
