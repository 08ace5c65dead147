//go:build test

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/srg/apconnect/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ListTestSuite struct {
	CommandTestSuite
}

func (s *ListTestSuite) SetupTest() {
	s.CommandTestSuite.SetupTest()
	s.Backend.WithDevices(testutils.Devices(
		"id-speakers", "Speakers",
		"id-headset", "Headset",
	)...)
}

func (s *ListTestSuite) TestList_Help() {
	output, err := s.ExecuteCommand("", "list", "--help")
	s.Require().NoError(err, "help command MUST succeed")

	s.Contains(output, "Watch for audio playback devices")
	s.Contains(output, "--duration", "help MUST document --duration flag")
	s.Contains(output, "--format", "help MUST document --format flag")
}

func (s *ListTestSuite) TestList_Table() {
	// GOAL: Verify discovered devices are printed as an aligned table
	//
	// TEST SCENARIO: two devices → list with short duration → table with index, name and id

	output, err := s.ExecuteCommand("", "list", "--duration", "10ms")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(output, `
INDEX  NAME      ID
0      Speakers  id-speakers
1      Headset   id-headset
`)
	s.Empty(s.Backend.ConnectIDs(), "list MUST NOT connect")
	s.True(s.Backend.Watchers()[0].Stopped(), "watcher MUST be stopped")
}

func (s *ListTestSuite) TestList_JSON() {
	output, err := s.ExecuteCommand("", "list", "-d", "10ms", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(output, `[
		{"id": "id-speakers", "name": "Speakers"},
		{"id": "id-headset", "name": "Headset"}
	]`)
}

func (s *ListTestSuite) TestList_Empty() {
	s.Backend.Devices = nil

	output, err := s.ExecuteCommand("", "list", "-d", "10ms", "-f", "json")
	s.Require().NoError(err)
	testutils.NewJSONAsserter(s.T()).Assert(output, `[]`)

	output, err = s.ExecuteCommand("", "list", "-d", "10ms")
	s.Require().NoError(err)
	testutils.NewTextAsserter(s.T()).Assert(output, "No devices found.")
}

func (s *ListTestSuite) TestList_FormatFromConfig() {
	path := filepath.Join(s.T().TempDir(), "apconnect.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("output_format: json\nlist_duration: 10ms\n"), 0o600))

	output, err := s.ExecuteCommand("", "list", "--config", path)
	s.Require().NoError(err)
	testutils.NewJSONAsserter(s.T(), testutils.WithIgnoreArrayOrder(true)).Assert(output, `[
		{"id": "id-headset", "name": "Headset"},
		{"id": "id-speakers", "name": "Speakers"}
	]`)
}

func (s *ListTestSuite) TestList_InvalidFormat() {
	_, err := s.ExecuteCommand("", "list", "--format=invalid")

	s.Require().Error(err, "invalid format MUST return error")
	s.Contains(err.Error(), "invalid format 'invalid': must be one of [table json]", "error MUST list valid formats")
	s.Empty(s.Backend.Watchers())
}

func (s *ListTestSuite) TestList_WatcherFailure() {
	s.Backend.NewWatcherErr = os.ErrPermission

	_, err := s.ExecuteCommand("", "list", "-d", "10ms")
	s.Require().Error(err)
	s.ErrorIs(err, os.ErrPermission)
	s.Contains(err.Error(), "failed to create device watcher")
}

func TestListTestSuite(t *testing.T) {
	suite.Run(t, new(ListTestSuite))
}
