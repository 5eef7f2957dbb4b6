package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerError_Is(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("mint: %w", NewLedgerError(CodeCapacityExceeded, "round %d is full", 3))

	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.False(t, errors.Is(err, ErrInadequateFunds))
	assert.Equal(t, CodeCapacityExceeded, ErrorCodeOf(err))
	assert.Equal(t, "CapacityExceeded: round 3 is full", NewLedgerError(CodeCapacityExceeded, "round %d is full", 3).Error())
}

func TestErrorCodeOf_NonLedgerError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorCode(""), ErrorCodeOf(errors.New("connection refused")))
	assert.Equal(t, ErrorCode(""), ErrorCodeOf(nil))
}
