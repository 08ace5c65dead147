//go:build test

package connection_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/srg/apconnect/internal/connection"
	"github.com/srg/apconnect/internal/playback"
	"github.com/srg/apconnect/internal/testutils"
	"github.com/stretchr/testify/suite"
)

// syncBuffer guards bytes.Buffer against the state printer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type ManagerTestSuite struct {
	testutils.PlaybackSuite

	out     *syncBuffer
	headset playback.Device
}

func (s *ManagerTestSuite) SetupTest() {
	s.PlaybackSuite.SetupTest()
	s.out = &syncBuffer{}
	s.headset = playback.Device{ID: "id-headset", Name: "Headset"}
}

func (s *ManagerTestSuite) newManager(timeout time.Duration) *connection.Manager {
	return connection.NewManager(s.Backend, s.out, s.Logger, &connection.Options{Timeout: timeout})
}

func (s *ManagerTestSuite) TestConnect_PrintsStateAndOpenResult() {
	sess, err := s.newManager(s.TestTimeout).Connect(context.Background(), s.headset)
	s.Require().NoError(err, "connect MUST succeed")
	s.Require().NoError(sess.Close())

	s.Equal([]string{"id-headset"}, s.Backend.ConnectIDs())

	conn := s.Backend.Connections()[0]
	s.True(conn.Started())
	s.True(conn.Opened())

	testutils.NewTextAsserter(s.T()).AssertContainsLines(s.out.String(),
		"[AudioPlaybackConnection] OnStateChanged: Opened",
	)
	s.Contains(s.out.String(), "[AudioPlaybackConnection] Open: Success\n")
	s.Equal(1, strings.Count(s.out.String(), "Open: "), "open result MUST be printed once")
}

func (s *ManagerTestSuite) TestConnect_StateLabels() {
	s.Backend.WithOpenStates(playback.StateOpened, playback.StateClosed, playback.State(5))

	sess, err := s.newManager(0).Connect(context.Background(), s.headset)
	s.Require().NoError(err)
	s.Require().NoError(sess.Close())

	testutils.NewTextAsserter(s.T()).AssertContainsLines(s.out.String(),
		"[AudioPlaybackConnection] OnStateChanged: Opened",
		"[AudioPlaybackConnection] OnStateChanged: Closed",
		"[AudioPlaybackConnection] OnStateChanged: AudioPlaybackConnectionState(5)",
	)
}

func (s *ManagerTestSuite) TestConnect_StatusLabels() {
	tests := []struct {
		status playback.OpenStatus
		want   string
	}{
		{playback.OpenSuccess, "Success"},
		{playback.OpenDeniedBySystem, "DeniedBySystem"},
		{playback.OpenRequestTimedOut, "RequestTimedOut"},
		{playback.OpenUnknownFailure, "UnknownFailure"},
		{playback.OpenStatus(9), "AudioPlaybackConnectionOpenResultStatus(9)"},
	}

	for _, tt := range tests {
		s.Run(tt.want, func() {
			s.SetupTest()
			s.Backend.WithOpenStatus(tt.status).WithOpenStates()

			sess, err := s.newManager(0).Connect(context.Background(), s.headset)
			s.Require().NoError(err, "a non-success status is reported, not returned as an error")
			s.Require().NoError(sess.Close())

			s.Equal("[AudioPlaybackConnection] Open: "+tt.want+"\n", s.out.String())
		})
	}
}

func (s *ManagerTestSuite) TestConnect_Failures() {
	boom := errors.New("boom")

	s.Run("create failure", func() {
		s.SetupTest()
		s.Backend.ConnectErr = boom

		sess, err := s.newManager(0).Connect(context.Background(), s.headset)

		s.Nil(sess)
		s.ErrorIs(err, boom)
		s.ErrorContains(err, "failed to create connection")
		s.Empty(s.out.String())
	})

	s.Run("start failure closes the connection", func() {
		s.SetupTest()
		s.Backend.ConnStartErr = boom

		_, err := s.newManager(0).Connect(context.Background(), s.headset)

		s.ErrorIs(err, boom)
		s.ErrorContains(err, "failed to start connection")
		conn := s.Backend.Connections()[0]
		s.True(conn.Closed())
		s.Equal(0, conn.ListenerCount(), "state listener MUST be removed")
		s.False(conn.Opened())
	})

	s.Run("open failure closes the connection", func() {
		s.SetupTest()
		s.Backend.OpenErr = &playback.OSError{Op: "AudioPlaybackConnection.Open", Code: 0x80070005}

		_, err := s.newManager(0).Connect(context.Background(), s.headset)

		s.ErrorIs(err, playback.ErrAccessDenied)
		s.ErrorContains(err, "failed to open connection")
		s.True(s.Backend.Connections()[0].Closed())
		s.NotContains(s.out.String(), "Open:")
	})
}

func (s *ManagerTestSuite) TestConnect_OpenTimeout() {
	gate := make(chan struct{})
	s.Backend.OpenGate = gate

	start := time.Now()
	_, err := s.newManager(20*time.Millisecond).Connect(context.Background(), s.headset)

	s.ErrorIs(err, playback.ErrTimeout)
	s.ErrorContains(err, "open-connection")
	s.Less(time.Since(start), s.TestTimeout)

	conn := s.Backend.Connections()[0]
	s.Equal(0, conn.ListenerCount(), "state listener MUST be removed on timeout")
	s.False(conn.Closed(), "connection MUST NOT be closed while open is still running")

	close(gate)
	s.Eventually(conn.Closed, s.TestTimeout, time.Millisecond, "connection MUST be closed once open returns")
}

func (s *ManagerTestSuite) TestConnect_StartTimeout() {
	gate := make(chan struct{})
	s.Backend.StartGate = gate

	_, err := s.newManager(20*time.Millisecond).Connect(context.Background(), s.headset)

	s.ErrorIs(err, playback.ErrTimeout)
	s.ErrorContains(err, "start-connection")

	conn := s.Backend.Connections()[0]
	s.Equal(0, conn.ListenerCount(), "state listener MUST be removed on timeout")
	s.False(conn.Closed(), "connection MUST NOT be closed while start is still running")

	close(gate)
	s.Eventually(conn.Closed, s.TestTimeout, time.Millisecond, "connection MUST be closed once start returns")
	s.False(conn.Opened(), "abandoned connection MUST NOT be opened")
}

func (s *ManagerTestSuite) TestConnect_StatesPrintedBeforeOpenResult() {
	s.Backend.WithOpenStates(playback.StateClosed, playback.StateOpened)

	sess, err := s.newManager(0).Connect(context.Background(), s.headset)
	s.Require().NoError(err)
	output := s.out.String()
	s.Require().NoError(sess.Close())

	testutils.NewTextAsserter(s.T()).Assert(output, `
[AudioPlaybackConnection] OnStateChanged: Closed
[AudioPlaybackConnection] OnStateChanged: Opened
[AudioPlaybackConnection] Open: Success
`)
}

func (s *ManagerTestSuite) TestConnect_ContextCancelled() {
	gate := make(chan struct{})
	defer close(gate)
	s.Backend.OpenGate = gate

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := s.newManager(0).Connect(ctx, s.headset)

	s.ErrorIs(err, context.Canceled)
	s.NotErrorIs(err, playback.ErrTimeout)
}

func (s *ManagerTestSuite) TestSession_StateAfterOpen() {
	sess, err := s.newManager(0).Connect(context.Background(), s.headset)
	s.Require().NoError(err)
	defer sess.Close()

	st, err := sess.State()
	s.NoError(err)
	s.Equal(playback.StateOpened, st)
	s.Equal(s.headset, sess.Device)
}

func (s *ManagerTestSuite) TestSession_CloseIsIdempotent() {
	sess, err := s.newManager(0).Connect(context.Background(), s.headset)
	s.Require().NoError(err)

	s.NoError(sess.Close())
	s.NoError(sess.Close())

	conn := s.Backend.Connections()[0]
	s.True(conn.Closed())
	s.NotPanics(func() { conn.Emit(playback.StateClosed) }, "late OS callbacks MUST be harmless")
}

func (s *ManagerTestSuite) TestSession_Wait() {
	sess, err := s.newManager(0).Connect(context.Background(), s.headset)
	s.Require().NoError(err)
	defer sess.Close()

	s.Run("returns after one line", func() {
		in := bufio.NewReader(strings.NewReader("\nleft over\n"))
		s.NoError(sess.Wait(context.Background(), in))

		rest, _ := in.ReadString('\n')
		s.Equal("left over\n", rest)
	})

	s.Run("returns on end of input", func() {
		s.NoError(sess.Wait(context.Background(), bufio.NewReader(strings.NewReader(""))))
	})

	s.Run("returns when context is cancelled", func() {
		pr, pw := newBlockingReader()
		defer pw()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s.ErrorIs(sess.Wait(ctx, bufio.NewReader(pr)), context.Canceled)
	})
}

// blockingReader never returns data until released.
type blockingReader struct{ release chan struct{} }

func (r *blockingReader) Read([]byte) (int, error) {
	<-r.release
	return 0, errors.New("released")
}

func newBlockingReader() (*blockingReader, func()) {
	r := &blockingReader{release: make(chan struct{})}
	return r, func() { close(r.release) }
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
