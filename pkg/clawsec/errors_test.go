package clawsec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := newError(ErrKindOracle, "call oracle", cause)
	assert.Equal(t, "call oracle: boom", err.Error())
}

func TestErrorMessageWithoutCause(t *testing.T) {
	err := newError(ErrKindConfig, "load config", nil)
	assert.Equal(t, "load config", err.Error())
}

func TestErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("underlying")
	err := newError(ErrKindApproval, "approve", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestNopLoggerDoesNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		NopLogger{}.Printf("%s", "anything")
	})
}
