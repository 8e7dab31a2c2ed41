package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Constructors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"string", String("hello"), KindString},
		{"bool", Bool(true), KindBool},
		{"uint32", Uint32(42), KindUint32},
		{"uint64", Uint64(1 << 40), KindUint64},
		{"int", Int(-7), KindInt},
		{"float", Float(2.5), KindFloat},
		{"list", StringList("a", "b"), KindStringList},
		{"path", Path("/tmp/x"), KindPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.False(t, tt.v.IsZero())
		})
	}

	var zero Value
	assert.True(t, zero.IsZero())
	assert.Equal(t, KindInvalid, zero.Kind())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, String("x").Equal(String("x")))
	assert.False(t, String("x").Equal(String("y")))
	assert.True(t, Bool(false).Equal(Bool(false)))
	assert.True(t, Uint32(10).Equal(Uint32(10)))
	assert.False(t, Uint32(10).Equal(Uint32(20)))
	assert.True(t, Int(-3).Equal(Int(-3)))
	assert.True(t, Float(1.25).Equal(Float(1.25)))
	assert.True(t, Path("/a/b").Equal(Path("/a/b")))
	assert.True(t, StringList("a", "b").Equal(StringList("a", "b")))
	assert.False(t, StringList("a", "b").Equal(StringList("b", "a")))
	assert.False(t, StringList("a").Equal(StringList("a", "b")))

	// cross-kind comparison is always false, even for same payloads
	assert.False(t, String("10").Equal(Path("10")))
	assert.False(t, Uint32(1).Equal(Uint64(1)))

	// the invalid kind never compares equal, not even to itself
	var a, b Value
	assert.False(t, a.Equal(b))
}

func TestKind_Comparable(t *testing.T) {
	assert.False(t, KindInvalid.Comparable())
	for _, k := range []Kind{KindString, KindBool, KindUint32, KindUint64, KindInt, KindFloat, KindStringList, KindPath} {
		assert.True(t, k.Comparable(), k.String())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		kind Kind
		text string
		want Value
	}{
		{KindString, "abc", String("abc")},
		{KindBool, "true", Bool(true)},
		{KindBool, "false", Bool(false)},
		{KindUint32, "4294967295", Uint32(4294967295)},
		{KindUint64, "18446744073709551615", Uint64(18446744073709551615)},
		{KindInt, "-42", Int(-42)},
		{KindFloat, "3.5", Float(3.5)},
		{KindStringList, "one", StringList("one")},
		{KindPath, "rel/path", Path("rel/path")},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.text, func(t *testing.T) {
			got, err := Parse(tt.kind, tt.text)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		kind Kind
		text string
	}{
		{KindBool, "maybe"},
		{KindUint32, "-1"},
		{KindUint32, "4294967296"},
		{KindUint64, "-5"},
		{KindInt, "1.5"},
		{KindFloat, "abc"},
		{KindInvalid, "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.text, func(t *testing.T) {
			_, err := Parse(tt.kind, tt.text)
			assert.Error(t, err)
		})
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  any
		want Value
	}{
		{"string", KindString, "abc", String("abc")},
		{"bool", KindBool, true, Bool(true)},
		{"uint32 from int64", KindUint32, int64(7), Uint32(7)},
		{"uint64 from int64", KindUint64, int64(9), Uint64(9)},
		{"int", KindInt, int64(-2), Int(-2)},
		{"float", KindFloat, 1.5, Float(1.5)},
		{"float from int64", KindFloat, int64(3), Float(3)},
		{"list", KindStringList, []any{"a", "b"}, StringList("a", "b")},
		{"list from scalar", KindStringList, "solo", StringList("solo")},
		{"path", KindPath, "/x", Path("/x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromConfig(tt.kind, tt.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want))
		})
	}
}

func TestFromConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  any
	}{
		{"bool from string", KindBool, "true"},
		{"uint32 negative", KindUint32, int64(-1)},
		{"uint32 overflow", KindUint32, int64(1 << 33)},
		{"uint64 negative", KindUint64, int64(-1)},
		{"list with non-string", KindStringList, []any{"a", int64(1)}},
		{"invalid kind", KindInvalid, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConfig(tt.kind, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestValue_ConfigString(t *testing.T) {
	assert.Equal(t, `"hello"`, String("hello").ConfigString())
	assert.Equal(t, "true", Bool(true).ConfigString())
	assert.Equal(t, "10", Uint32(10).ConfigString())
	assert.Equal(t, "-3", Int(-3).ConfigString())
	assert.Equal(t, "2.5", Float(2.5).ConfigString())
	assert.Equal(t, `["a", "b"]`, StringList("a", "b").ConfigString())
	assert.Equal(t, `"/var/data"`, Path("/var/data").ConfigString())
	assert.Equal(t, "", Value{}.ConfigString())
}
