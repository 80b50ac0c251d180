package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/core"
)

func TestStructuredErrorsUnwrapToSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&core.ValidationError{Field: "start_day", Message: "out of range"}, core.ErrValidation},
		{&core.ConflictError{Code: "AlreadyClockedIn", Message: "x"}, core.ErrConflict},
		{&core.StateError{Current: "draft", Attempted: "release"}, core.ErrState},
		{&core.LockedError{Kind: "pay_stub", ID: "s1"}, core.ErrLocked},
		{&core.ConfigurationError{Setting: "pay_period", Message: "unknown"}, core.ErrConfiguration},
		{&core.NotFoundError{Kind: "time_entry", ID: "e1"}, core.ErrNotFound},
	}

	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel, "%T", tc.err)
		// Still classifiable through wrapping.
		assert.ErrorIs(t, fmt.Errorf("outer: %w", tc.err), tc.sentinel)
	}
}

func TestErrorsAsRecoversStructure(t *testing.T) {
	err := fmt.Errorf("clock in: %w", &core.ConflictError{Code: "AlreadyClockedIn", Message: "entry open"})

	var conflict *core.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "AlreadyClockedIn", conflict.Code)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, core.IsClientError(&core.ValidationError{}))
	assert.True(t, core.IsClientError(&core.StateError{}))
	assert.True(t, core.IsClientError(&core.LockedError{}))
	assert.False(t, core.IsClientError(&core.NotFoundError{}))
	assert.False(t, core.IsClientError(errors.New("disk full")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, core.IsNotFound(&core.NotFoundError{Kind: "pay_stub", ID: "s1"}))
	assert.False(t, core.IsNotFound(errors.New("disk full")))
}
