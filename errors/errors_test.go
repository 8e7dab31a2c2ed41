package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Format(t *testing.T) {
	base := New("boom")
	err := Wrap(base, "Kernel", "StartupAll", "plugin chain startup")
	require.Error(t, err)
	assert.Equal(t, "Kernel.StartupAll: plugin chain startup failed: boom", err.Error())
	assert.True(t, Is(err, base))

	assert.NoError(t, Wrap(nil, "a", "b", "c"))
}

func TestWrapInvalid_Classification(t *testing.T) {
	err := WrapInvalid(fmt.Errorf("%w: %q", ErrPluginNotFound, "chain"), "Kernel", "GetPlugin", "plugin lookup")
	require.Error(t, err)

	var ce *ClassifiedError
	require.True(t, As(err, &ce))
	assert.Equal(t, ErrorInvalid, ce.Class)
	assert.Equal(t, "Kernel", ce.Component)
	assert.True(t, Is(err, ErrPluginNotFound))
	assert.True(t, IsPluginNotFound(err))
	assert.True(t, IsInvalid(err))
	assert.False(t, IsFatal(err))
}

func TestWrapFatal_Classification(t *testing.T) {
	err := WrapFatal(fmt.Errorf("%w: cannot start", ErrInvalidState), "Kernel", "StartupPlugin", "state check")
	assert.True(t, IsFatal(err))
	assert.True(t, IsInvalidState(err))
	assert.False(t, IsInvalid(err))
}

func TestPredicates_Sentinels(t *testing.T) {
	assert.True(t, IsDuplicateName(ErrDuplicateName))
	assert.True(t, IsDuplicateName(ErrDuplicateOption))
	assert.True(t, IsConfigFileMissing(fmt.Errorf("wrapped: %w", ErrConfigFileMissing)))
	assert.False(t, IsPluginNotFound(ErrDuplicateName))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsInvalid(nil))
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}
