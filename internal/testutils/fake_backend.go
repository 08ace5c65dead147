//go:build test

package testutils

import (
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/srg/apconnect/internal/playback"
)

// FakeBackend is an in-memory playback.Backend.
//
// Watchers report the configured devices synchronously from Start, in order.
// Connections replay the configured states from Open and then return the
// configured status.
//
//	b := testutils.NewFakeBackend().
//	    WithDevices(playback.Device{ID: "id-1", Name: "Speakers"}).
//	    WithOpenStatus(playback.OpenSuccess)
type FakeBackend struct {
	mu sync.Mutex

	Selector string
	Devices  []playback.Device

	// Failure injection
	SelectorErr     error
	NewWatcherErr   error
	SubscribeErr    error
	WatcherStartErr error
	WatcherStopErr  error
	ConnectErr      error
	ConnStartErr    error
	OpenErr         error

	OpenStatus playback.OpenStatus
	OpenStates []playback.State
	// OpenGate, when set, blocks Open until closed.
	OpenGate chan struct{}

	// StartGate, when set, blocks connection Start until closed.
	StartGate chan struct{}

	// WatcherStopGate, when set, blocks watcher Stop until closed.
	WatcherStopGate chan struct{}

	watchers    []*FakeWatcher
	connections []*FakeConnection
	connectIDs  []string
	closed      atomic.Bool
}

// NewFakeBackend creates a backend that opens successfully and reports the Opened state.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Selector:   `System.Devices.AepService.ProtocolId:="{e0cbf06c-cd8b-4647-bb8a-263b43f0f974}"`,
		OpenStatus: playback.OpenSuccess,
		OpenStates: []playback.State{playback.StateOpened},
	}
}

func (b *FakeBackend) WithDevices(devices ...playback.Device) *FakeBackend {
	b.Devices = append(b.Devices, devices...)
	return b
}

func (b *FakeBackend) WithOpenStatus(status playback.OpenStatus) *FakeBackend {
	b.OpenStatus = status
	return b
}

func (b *FakeBackend) WithOpenStates(states ...playback.State) *FakeBackend {
	b.OpenStates = states
	return b
}

func (b *FakeBackend) DeviceSelector() (string, error) {
	if b.SelectorErr != nil {
		return "", b.SelectorErr
	}
	return b.Selector, nil
}

func (b *FakeBackend) NewWatcher(selector string) (playback.Watcher, error) {
	if b.NewWatcherErr != nil {
		return nil, b.NewWatcherErr
	}
	w := &FakeWatcher{
		Selector:  selector,
		backend:   b,
		listeners: hashmap.New[uint64, func(playback.Device)](),
	}
	b.mu.Lock()
	b.watchers = append(b.watchers, w)
	b.mu.Unlock()
	return w, nil
}

func (b *FakeBackend) Connect(deviceID string) (playback.Connection, error) {
	b.mu.Lock()
	b.connectIDs = append(b.connectIDs, deviceID)
	b.mu.Unlock()

	if b.ConnectErr != nil {
		return nil, b.ConnectErr
	}
	c := &FakeConnection{
		id:        deviceID,
		backend:   b,
		listeners: hashmap.New[uint64, func(playback.State)](),
	}
	b.mu.Lock()
	b.connections = append(b.connections, c)
	b.mu.Unlock()
	return c, nil
}

func (b *FakeBackend) Close() error {
	b.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (b *FakeBackend) Closed() bool {
	return b.closed.Load()
}

// ConnectIDs returns every device id passed to Connect, in call order.
func (b *FakeBackend) ConnectIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.connectIDs...)
}

// Watchers returns the watchers created so far.
func (b *FakeBackend) Watchers() []*FakeWatcher {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*FakeWatcher(nil), b.watchers...)
}

// Connections returns the connections created so far.
func (b *FakeBackend) Connections() []*FakeConnection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*FakeConnection(nil), b.connections...)
}

// FakeWatcher is the watcher produced by FakeBackend.
type FakeWatcher struct {
	Selector string

	backend   *FakeBackend
	listeners *hashmap.Map[uint64, func(playback.Device)]
	nextToken atomic.Uint64
	started   atomic.Bool
	stopped   atomic.Bool
}

func (w *FakeWatcher) OnAdded(fn func(playback.Device)) (func(), error) {
	if w.backend.SubscribeErr != nil {
		return nil, w.backend.SubscribeErr
	}
	token := w.nextToken.Add(1)
	w.listeners.Set(token, fn)
	return func() { w.listeners.Del(token) }, nil
}

func (w *FakeWatcher) Start() error {
	if w.backend.WatcherStartErr != nil {
		return w.backend.WatcherStartErr
	}
	w.started.Store(true)
	for _, dev := range w.backend.Devices {
		w.Emit(dev)
	}
	return nil
}

func (w *FakeWatcher) Stop() error {
	w.stopped.Store(true)
	if gate := w.backend.WatcherStopGate; gate != nil {
		<-gate
	}
	return w.backend.WatcherStopErr
}

// Emit delivers dev to every registered listener, as the OS would.
func (w *FakeWatcher) Emit(dev playback.Device) {
	w.listeners.Range(func(_ uint64, fn func(playback.Device)) bool {
		fn(dev)
		return true
	})
}

func (w *FakeWatcher) Started() bool { return w.started.Load() }
func (w *FakeWatcher) Stopped() bool { return w.stopped.Load() }
func (w *FakeWatcher) ListenerCount() int { return w.listeners.Len() }

// FakeConnection is the connection produced by FakeBackend.
type FakeConnection struct {
	id        string
	backend   *FakeBackend
	listeners *hashmap.Map[uint64, func(playback.State)]
	nextToken atomic.Uint64
	state     atomic.Int32
	started   atomic.Bool
	opened    atomic.Bool
	closed    atomic.Bool
}

func (c *FakeConnection) DeviceID() string { return c.id }

func (c *FakeConnection) State() (playback.State, error) {
	return playback.State(c.state.Load()), nil
}

func (c *FakeConnection) OnStateChanged(fn func(playback.State)) (func(), error) {
	token := c.nextToken.Add(1)
	c.listeners.Set(token, fn)
	return func() { c.listeners.Del(token) }, nil
}

func (c *FakeConnection) Start() error {
	if gate := c.backend.StartGate; gate != nil {
		<-gate
	}
	if c.backend.ConnStartErr != nil {
		return c.backend.ConnStartErr
	}
	c.started.Store(true)
	return nil
}

func (c *FakeConnection) Open() (playback.OpenStatus, error) {
	if gate := c.backend.OpenGate; gate != nil {
		<-gate
	}
	if c.backend.OpenErr != nil {
		return 0, c.backend.OpenErr
	}
	c.opened.Store(true)
	for _, st := range c.backend.OpenStates {
		c.Emit(st)
	}
	return c.backend.OpenStatus, nil
}

func (c *FakeConnection) Close() error {
	c.closed.Store(true)
	return nil
}

// Emit records st as the current state and notifies every listener.
func (c *FakeConnection) Emit(st playback.State) {
	c.state.Store(int32(st))
	c.listeners.Range(func(_ uint64, fn func(playback.State)) bool {
		fn(st)
		return true
	})
}

func (c *FakeConnection) Started() bool { return c.started.Load() }
func (c *FakeConnection) Opened() bool { return c.opened.Load() }
func (c *FakeConnection) Closed() bool { return c.closed.Load() }
func (c *FakeConnection) ListenerCount() int { return c.listeners.Len() }
