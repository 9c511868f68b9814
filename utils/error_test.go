package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrExecSequential(t *testing.T) {
	calls := 0
	ok := func() error { calls++; return nil }
	fail := func(msg string) func() error {
		return func() error { calls++; return errors.New(msg) }
	}

	assert.NoError(t, ErrExecSequential(ok, ok))
	assert.Equal(t, 2, calls)

	calls = 0
	err := ErrExecSequential(
		ErrExecFormat("failed to close writer of stream[boards]: %s", fail("disk full")),
		ok,
		fail("broken pipe"),
	)
	assert.Equal(t, 3, calls)
	assert.EqualError(t, err, "failed to close writer of stream[boards]: disk full; broken pipe")
}
