//go:build test

package testutils

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/backend"
	"github.com/srg/apconnect/internal/playback"
	"github.com/stretchr/testify/suite"
)

// PlaybackSuite provides a testify suite with a fake playback backend installed
// as backend.Factory.
//
//	type ConnectSuite struct {
//	    testutils.PlaybackSuite
//	}
//
//	func (s *ConnectSuite) SetupTest() {
//	    s.PlaybackSuite.SetupTest() // Call parent first, then configure the backend
//	    s.Backend.WithDevices(playback.Device{ID: "id-1", Name: "Speakers"})
//	}
type PlaybackSuite struct {
	suite.Suite

	Helper      *TestHelper
	Logger      *logrus.Logger
	TestTimeout time.Duration

	Backend         *FakeBackend
	OriginalFactory func(*logrus.Logger) (playback.Backend, error)
}

// SetupSuite is called once before all tests in the suite.
func (s *PlaybackSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 5 * time.Second

	s.OriginalFactory = backend.Factory
	s.T().Cleanup(func() {
		if s.OriginalFactory != nil {
			backend.Factory = s.OriginalFactory
		}
	})
}

// SetupTest installs a fresh fake backend before each test.
func (s *PlaybackSuite) SetupTest() {
	s.Backend = NewFakeBackend()
	backend.Factory = func(*logrus.Logger) (playback.Backend, error) {
		return s.Backend, nil
	}
}

// TearDownTest restores the original backend factory.
func (s *PlaybackSuite) TearDownTest() {
	if s.OriginalFactory != nil {
		backend.Factory = s.OriginalFactory
	}
	s.Backend = nil
}

// Devices builds device records from alternating id, name pairs.
func Devices(idNamePairs ...string) []playback.Device {
	if len(idNamePairs)%2 != 0 {
		panic("testutils.Devices: want id, name pairs")
	}
	devices := make([]playback.Device, 0, len(idNamePairs)/2)
	for i := 0; i < len(idNamePairs); i += 2 {
		devices = append(devices, playback.Device{ID: idNamePairs[i], Name: idNamePairs[i+1]})
	}
	return devices
}

// TestHelper carries per-test utilities.
type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
}

// NewTestHelper creates a test helper with a debug-level logger.
func NewTestHelper(t *testing.T) *TestHelper {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return &TestHelper{
		T:      t,
		Logger: logger,
	}
}
