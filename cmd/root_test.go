package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Manu343726/chip8/cmd/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, 0},
		{"plain error", errors.New("unknown command"), 1},
		{"exit error", &vm.ExitError{Code: 3, Err: errors.New("stack underflow")}, 3},
		{"wrapped exit error", fmt.Errorf("exec: %w", &vm.ExitError{Code: 4, Err: errors.New("read-only")}), 4},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, exitCode(c.err))
		})
	}
}

func TestTeardownLogging(t *testing.T) {
	calls := 0
	closeLog = func() error {
		calls++
		return nil
	}
	t.Cleanup(func() { closeLog = nil })

	require.NoError(t, teardownLogging())
	require.NoError(t, teardownLogging())
	assert.Equal(t, 1, calls, "the log file is closed once")

	closeLog = func() error { return errors.New("disk full") }
	assert.EqualError(t, teardownLogging(), "disk full")
}
