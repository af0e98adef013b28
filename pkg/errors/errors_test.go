package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeUnknownFunctionalGroup, "no such functional group")
	assert.Equal(t, "[FG_001] no such functional group", err.Error())

	withDetail := err.WithDetail("name=amine3")
	assert.Equal(t, "[FG_001] no such functional group: name=amine3", withDetail.Error())
	// WithDetail must not mutate the original.
	assert.Empty(t, err.Detail)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeConstructionFailed, "construction failure"))
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := New(CodeDegenerateReaction, "matching collapsed")
	wrapped := Wrap(inner, CodeUnknown, "adding context")
	assert.Equal(t, CodeDegenerateReaction, wrapped.Code)
	assert.Same(t, inner, wrapped.Cause)
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := New(CodeDegenerateReaction, "matching collapsed")
	mid := fmt.Errorf("mid layer: %w", inner)
	outer := Wrap(mid, CodeConstructionFailed, "construction failure")

	assert.True(t, IsCode(outer, CodeDegenerateReaction))
	assert.True(t, IsCode(outer, CodeConstructionFailed))
	assert.False(t, IsCode(outer, CodeUnknownFunctionalGroup))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))

	err := New(CodeReactorFinalized, "reactor already finalized")
	assert.Equal(t, CodeReactorFinalized, GetCode(err))
}

func TestStackCapture(t *testing.T) {
	err := New(CodeInternal, "boom")
	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack, "errors_test.go")
}
