package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilErrorHasNoCode(t *testing.T) {
	e := NewError(nil, TrainSubmitFailureExitCode)
	assert.Nil(t, e)
	assert.Equal(t, ExitCode(0), e.GetExitCode())
}

func TestExitCodeSurvivesWrapping(t *testing.T) {
	cause := errors.New("no workers")
	wrapped := fmt.Errorf("starting sweep: %w", NewError(cause, SubstrateFailureExitCode))

	var exitErr *ExitCodeError
	assert.True(t, errors.As(wrapped, &exitErr))
	assert.Equal(t, SubstrateFailureExitCode, exitErr.GetExitCode())
	assert.True(t, errors.Is(wrapped, cause))
}
