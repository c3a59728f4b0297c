package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeInvalidInput, "bad shape")
	assert.Equal(t, "[INVALID_INPUT] bad shape", err.Error())

	wrapped := Wrap(CodeCorruptTree, "validation failed", stderrors.New("leaf has child"))
	assert.Equal(t, "[CORRUPT_TREE] validation failed: leaf has child", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := stderrors.New("disk full")
	err := Wrap(CodeResourceExhausted, "allocation failed", inner)

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, inner, stderrors.Unwrap(err))
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	err := Wrap(CodeInvalidInput, "radii length mismatch", nil)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, IsInvalidInput(err))
	assert.False(t, IsCorruptTree(err))
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("query call: %w", Wrap(CodeCorruptTree, "bad child table", nil))

	assert.True(t, IsCorruptTree(err))
	assert.Equal(t, CodeCorruptTree, GetErrorCode(err))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeQueryError, GetErrorCode(ErrQueryError))
	assert.Equal(t, CodeUnknown, GetErrorCode(stderrors.New("plain")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid input", GetErrorMessage(ErrInvalidInput))
	assert.Equal(t, "plain", GetErrorMessage(stderrors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
