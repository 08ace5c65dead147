package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/events"
	"github.com/srg/apconnect/internal/groutine"
	"github.com/srg/apconnect/internal/playback"
)

const (
	logPrefix      = "[AudioPlaybackConnection]"
	stateQueueSize = 16
	flushTimeout   = time.Second
	DefaultTimeout = 30 * time.Second
)

// Options configures a Manager.
type Options struct {
	// Timeout bounds each of create, start and open. Zero means unbounded.
	Timeout time.Duration
}

// Manager opens playback connections and reports their state on out.
type Manager struct {
	backend playback.Backend
	out     io.Writer
	logger  *logrus.Logger
	opts    Options
	outMu   sync.Mutex
}

// NewManager creates a connection manager. opts may be nil.
func NewManager(backend playback.Backend, out io.Writer, logger *logrus.Logger, opts *Options) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	if opts == nil {
		opts = &Options{Timeout: DefaultTimeout}
	}
	return &Manager{
		backend: backend,
		out:     out,
		logger:  logger,
		opts:    *opts,
	}
}

// Session is an open playback connection with an active state listener.
type Session struct {
	Device playback.Device

	conn        playback.Connection
	unsubscribe func()
	states      *events.RingChannel[stateEvent]
	printerDone <-chan struct{}
	logger      *logrus.Logger

	closeOnce sync.Once
	closeErr  error
}

// stateEvent is a queued state transition, or a flush marker when flushed is set.
type stateEvent struct {
	state   playback.State
	flushed chan struct{}
}

// abandonedError reports a step whose OS call is still running. The call's
// own completion handler owns the connection from then on.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }

// Connect creates a connection to dev, subscribes to its state changes, starts
// and opens it. On failure the listener is removed and the connection closed;
// when a start or open call is still running, the close happens once it returns.
func (m *Manager) Connect(ctx context.Context, dev playback.Device) (*Session, error) {
	log := m.logger.WithFields(logrus.Fields{
		"device": dev.Name,
		"id":     dev.ID,
	})
	log.Info("Creating playback connection")

	conn, err := bounded(ctx, m, "create-connection", func() (playback.Connection, error) {
		return m.backend.Connect(dev.ID)
	}, func(c playback.Connection, err error) {
		if err == nil && c != nil {
			_ = c.Close()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s := &Session{
		Device: dev,
		conn:   conn,
		states: events.NewRingChannel[stateEvent](stateQueueSize),
		logger: m.logger,
	}

	unsubscribe, err := conn.OnStateChanged(func(st playback.State) {
		if s.states.ForceSend(stateEvent{state: st}) {
			m.logger.Warn("State queue full, dropped oldest state")
		}
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to subscribe to state changes: %w", err)
	}
	s.unsubscribe = unsubscribe
	s.printerDone = groutine.Go(context.Background(), "state-printer", func(context.Context) {
		for ev := range s.states.C() {
			if ev.flushed != nil {
				close(ev.flushed)
				continue
			}
			m.println(logPrefix, "OnStateChanged:", ev.state.String())
		}
	})

	if _, err := bounded(ctx, m, "start-connection", func() (struct{}, error) {
		return struct{}{}, conn.Start()
	}, closeWhenDone[struct{}](conn)); err != nil {
		s.fail(err)
		return nil, fmt.Errorf("failed to start connection: %w", err)
	}
	log.Debug("Connection started")

	status, err := bounded(ctx, m, "open-connection", conn.Open, closeWhenDone[playback.OpenStatus](conn))
	if err != nil {
		s.fail(err)
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	s.flush()
	m.println(logPrefix, "Open:", status.String())
	log.WithField("status", status.String()).Info("Connection open completed")

	return s, nil
}

func (m *Manager) println(a ...interface{}) {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	fmt.Fprintln(m.out, a...)
}

// closeWhenDone closes conn after an abandoned call on it returns.
func closeWhenDone[T any](conn playback.Connection) func(T, error) {
	return func(T, error) { _ = conn.Close() }
}

// bounded runs fn under the manager timeout and ctx. A call that outlives
// them is abandoned and reported as an *abandonedError wrapping
// playback.ErrTimeout or the context error.
func bounded[T any](ctx context.Context, m *Manager, name string, fn func() (T, error), abandoned func(T, error)) (T, error) {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	v, err := groutine.Call(ctx, name, fn, abandoned)
	if err == nil || ctx.Err() == nil || !errors.Is(err, ctx.Err()) {
		return v, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.WithFields(logrus.Fields{
			"step":    name,
			"timeout": m.opts.Timeout,
		}).Warn("Playback connection step timed out")
		err = fmt.Errorf("%s: %w", name, playback.ErrTimeout)
	}
	return v, &abandonedError{err: err}
}

// State returns the current OS-reported state.
func (s *Session) State() (playback.State, error) {
	return s.conn.State()
}

// Wait blocks until one line is read from in, input ends, or ctx is done.
func (s *Session) Wait(ctx context.Context, in *bufio.Reader) error {
	lineCh := make(chan error, 1)
	groutine.Go(ctx, "wait-for-exit", func(context.Context) {
		_, err := in.ReadString('\n')
		lineCh <- err
	})

	select {
	case err := <-lineCh:
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("waiting for input: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flush waits until every state queued so far has been printed.
func (s *Session) flush() {
	done := make(chan struct{})
	s.states.ForceSend(stateEvent{flushed: done})
	select {
	case <-done:
	case <-s.printerDone:
	case <-time.After(flushTimeout):
		s.logger.Debug("Timed out flushing state output")
	}
}

// fail tears the session down after a failed step. An abandoned call still
// holds the connection, so only the listener and printer are released here.
func (s *Session) fail(err error) {
	var ab *abandonedError
	if errors.As(err, &ab) {
		s.release(false)
		return
	}
	_ = s.Close()
}

// Close removes the state listener, closes the connection and flushes pending
// state output. It is safe to call more than once.
func (s *Session) Close() error {
	s.release(true)
	return s.closeErr
}

func (s *Session) release(closeConn bool) {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if closeConn {
			s.closeErr = s.conn.Close()
		}
		s.states.Close()
		if s.printerDone != nil {
			<-s.printerDone
		}

		m := s.states.GetMetrics()
		s.logger.WithFields(logrus.Fields{
			"states_written":     m.Written,
			"states_overwritten": m.Overwritten,
		}).Debug("Playback connection closed")
	})
}
