//go:build test

package main

import (
	"bytes"
	"strings"

	"github.com/srg/apconnect/internal/testutils"
)

// CommandTestSuite extends PlaybackSuite with command testing utilities.
// All cmd/apconnect test suites should embed this instead of PlaybackSuite.
type CommandTestSuite struct {
	testutils.PlaybackSuite

	// Stderr holds the log output of the last ExecuteCommand call.
	Stderr *bytes.Buffer
}

// ExecuteCommand runs a fresh root command with args, feeding input to stdin.
// It returns stdout and the command error.
func (s *CommandTestSuite) ExecuteCommand(input string, args ...string) (string, error) {
	cmd := newRootCmd()
	stdout := new(bytes.Buffer)
	s.Stderr = new(bytes.Buffer)

	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(stdout)
	cmd.SetErr(s.Stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}
