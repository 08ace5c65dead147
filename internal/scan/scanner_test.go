//go:build test

package scan_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/srg/apconnect/internal/playback"
	"github.com/srg/apconnect/internal/scan"
	"github.com/srg/apconnect/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ScannerTestSuite struct {
	testutils.PlaybackSuite

	mu         sync.Mutex
	discovered []playback.Device
}

func (s *ScannerTestSuite) SetupTest() {
	s.PlaybackSuite.SetupTest()
	s.discovered = nil
}

func (s *ScannerTestSuite) newScanner() *scan.Scanner {
	return scan.NewScanner(s.Backend, s.Logger, func(dev playback.Device) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.discovered = append(s.discovered, dev)
	})
}

func (s *ScannerTestSuite) TestStartStop_ReturnsDevicesInDiscoveryOrder() {
	s.Backend.WithDevices(testutils.Devices("id-1", "Speakers", "id-2", "Headset")...)

	sc, err := s.newScanner().Start()
	s.Require().NoError(err, "scan start MUST succeed")

	devices, err := sc.Stop()

	s.Require().NoError(err)
	s.Equal(testutils.Devices("id-1", "Speakers", "id-2", "Headset"), devices)
	s.Equal(devices, s.discovered, "every discovered device MUST be announced once")
}

func (s *ScannerTestSuite) TestStart_UsesBackendSelector() {
	sc, err := s.newScanner().Start()
	s.Require().NoError(err)
	defer sc.Stop()

	watchers := s.Backend.Watchers()
	s.Require().Len(watchers, 1)
	s.Equal(s.Backend.Selector, watchers[0].Selector)
	s.True(watchers[0].Started())
}

func (s *ScannerTestSuite) TestStop_RemovesListenerAndStopsWatcher() {
	sc, err := s.newScanner().Start()
	s.Require().NoError(err)

	w := s.Backend.Watchers()[0]
	s.Equal(1, w.ListenerCount())

	_, err = sc.Stop()
	s.Require().NoError(err)

	s.True(w.Stopped())
	s.Equal(0, w.ListenerCount(), "listener MUST be removed on stop")
}

func (s *ScannerTestSuite) TestStop_IsIdempotentAndHandsOffSnapshot() {
	s.Backend.WithDevices(testutils.Devices("id-1", "Speakers")...)
	sc, err := s.newScanner().Start()
	s.Require().NoError(err)

	first, err := sc.Stop()
	s.Require().NoError(err)

	// A late OS callback after the hand-off MUST NOT change the list.
	s.Backend.Watchers()[0].Emit(playback.Device{ID: "id-9", Name: "Late"})

	second, err := sc.Stop()
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Len(second, 1)
}

func (s *ScannerTestSuite) TestDuplicateIDsKeepFirstRecord() {
	s.Backend.WithDevices(
		playback.Device{ID: "id-1", Name: "Speakers"},
		playback.Device{ID: "id-2", Name: "Headset"},
		playback.Device{ID: "id-1", Name: "Speakers (renamed)"},
	)

	sc, err := s.newScanner().Start()
	s.Require().NoError(err)
	s.Equal(2, sc.Len())

	devices, err := sc.Stop()
	s.Require().NoError(err)
	s.Equal(testutils.Devices("id-1", "Speakers", "id-2", "Headset"), devices)
	s.Len(s.discovered, 2)
}

func (s *ScannerTestSuite) TestStart_Failures() {
	boom := errors.New("boom")

	s.Run("selector failure aborts before any watcher exists", func() {
		s.SetupTest()
		s.Backend.SelectorErr = boom

		sc, err := s.newScanner().Start()

		s.Nil(sc)
		s.ErrorIs(err, boom)
		s.ErrorContains(err, "device selector")
		s.Empty(s.Backend.Watchers())
	})

	s.Run("watcher creation failure", func() {
		s.SetupTest()
		s.Backend.NewWatcherErr = boom

		_, err := s.newScanner().Start()

		s.ErrorIs(err, boom)
		s.ErrorContains(err, "create device watcher")
	})

	s.Run("watcher start failure removes the listener and stops the watcher", func() {
		s.SetupTest()
		s.Backend.WatcherStartErr = boom

		_, err := s.newScanner().Start()

		s.ErrorIs(err, boom)
		w := s.Backend.Watchers()[0]
		s.Equal(0, w.ListenerCount())
		s.True(w.Stopped(), "partially built watcher MUST be stopped")
	})

	s.Run("subscribe failure stops the watcher", func() {
		s.SetupTest()
		s.Backend.SubscribeErr = boom

		_, err := s.newScanner().Start()

		s.ErrorIs(err, boom)
		s.ErrorContains(err, "subscribe to device watcher")
		w := s.Backend.Watchers()[0]
		s.False(w.Started())
		s.True(w.Stopped(), "partially built watcher MUST be stopped")
	})
}

func (s *ScannerTestSuite) TestStop_ConcurrentCallsShareResult() {
	s.Backend.WithDevices(testutils.Devices("id-1", "Speakers")...)
	gate := make(chan struct{})
	s.Backend.WatcherStopGate = gate

	sc, err := s.newScanner().Start()
	s.Require().NoError(err)

	type stopResult struct {
		devices []playback.Device
		err     error
	}
	stopAsync := func() <-chan stopResult {
		ch := make(chan stopResult, 1)
		go func() {
			devices, err := sc.Stop()
			ch <- stopResult{devices, err}
		}()
		return ch
	}

	first := stopAsync()
	w := s.Backend.Watchers()[0]
	s.Require().Eventually(w.Stopped, s.TestTimeout, time.Millisecond, "first Stop MUST reach the watcher")

	second := stopAsync()
	select {
	case <-second:
		s.Fail("concurrent Stop MUST wait for the hand-off")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	for _, ch := range []<-chan stopResult{first, second} {
		res := <-ch
		s.NoError(res.err)
		s.Equal(testutils.Devices("id-1", "Speakers"), res.devices)
	}
}

func (s *ScannerTestSuite) TestStop_ReportsWatcherStopError() {
	boom := errors.New("stop failed")
	s.Backend.WithDevices(testutils.Devices("id-1", "Speakers")...)
	s.Backend.WatcherStopErr = boom

	sc, err := s.newScanner().Start()
	s.Require().NoError(err)

	devices, err := sc.Stop()

	s.ErrorIs(err, boom)
	s.Len(devices, 1, "devices collected so far MUST still be handed off")
}

func (s *ScannerTestSuite) TestCollect() {
	s.Backend.WithDevices(testutils.Devices("id-1", "Speakers", "id-2", "Headset")...)

	s.Run("stops at deadline without error", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		devices, err := s.newScanner().Collect(ctx)

		s.NoError(err)
		s.Len(devices, 2)
	})

	s.Run("cancellation returns devices and context error", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		devices, err := s.newScanner().Collect(ctx)

		s.ErrorIs(err, context.Canceled)
		s.Len(devices, 2)
	})
}

func TestScannerTestSuite(t *testing.T) {
	suite.Run(t, new(ScannerTestSuite))
}
