package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DiscoveredFunc is called for every newly discovered device, on the OS callback thread.
type DiscoveredFunc func(dev playback.Device)

// Scanner discovers playback-capable devices through a backend watcher.
type Scanner struct {
	backend      playback.Backend
	logger       *logrus.Logger
	onDiscovered DiscoveredFunc
}

// NewScanner creates a scanner. onDiscovered may be nil.
func NewScanner(backend playback.Backend, logger *logrus.Logger, onDiscovered DiscoveredFunc) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	if onDiscovered == nil {
		onDiscovered = func(playback.Device) {}
	}
	return &Scanner{
		backend:      backend,
		logger:       logger,
		onDiscovered: onDiscovered,
	}
}

// Scan is a running device watch. It owns the device list until Stop hands it over.
type Scan struct {
	watcher     playback.Watcher
	unsubscribe func()
	logger      *logrus.Logger

	mu      sync.Mutex
	devices *orderedmap.OrderedMap[string, playback.Device]
	stopped bool

	stopOnce sync.Once
	result   []playback.Device
	stopErr  error
}

// Start creates a watcher filtered to playback-capable devices and starts it.
func (s *Scanner) Start() (*Scan, error) {
	selector, err := s.backend.DeviceSelector()
	if err != nil {
		return nil, fmt.Errorf("failed to get device selector: %w", err)
	}
	s.logger.WithField("selector", selector).Debug("Creating device watcher")

	watcher, err := s.backend.NewWatcher(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to create device watcher: %w", err)
	}

	sc := &Scan{
		watcher: watcher,
		logger:  s.logger,
		devices: orderedmap.New[string, playback.Device](),
	}

	unsubscribe, err := watcher.OnAdded(func(dev playback.Device) {
		if sc.add(dev) {
			s.onDiscovered(dev)
		}
	})
	if err != nil {
		s.discard(watcher)
		return nil, fmt.Errorf("failed to subscribe to device watcher: %w", err)
	}
	sc.unsubscribe = unsubscribe

	if err := watcher.Start(); err != nil {
		unsubscribe()
		s.discard(watcher)
		return nil, fmt.Errorf("failed to start device watcher: %w", err)
	}

	s.logger.Info("Device watcher started")
	return sc, nil
}

// discard stops a watcher that failed to start; the backend releases it on Stop.
func (s *Scanner) discard(watcher playback.Watcher) {
	if err := watcher.Stop(); err != nil {
		s.logger.WithError(err).Debug("Failed to stop partially started device watcher")
	}
}

// Collect scans until ctx is done and returns the discovered devices.
func (s *Scanner) Collect(ctx context.Context) ([]playback.Device, error) {
	sc, err := s.Start()
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	devices, err := sc.Stop()
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return devices, ctxErr
	}
	return devices, nil
}

// add appends dev unless the scan is stopped or dev.ID is already known.
func (sc *Scan) add(dev playback.Device) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.stopped {
		sc.logger.WithField("device", dev.Name).Debug("Ignoring device reported after stop")
		return false
	}
	if _, present := sc.devices.Get(dev.ID); present {
		sc.logger.WithField("id", dev.ID).Debug("Device reported twice, keeping first record")
		return false
	}
	sc.devices.Set(dev.ID, dev)

	sc.logger.WithFields(logrus.Fields{
		"device": dev.Name,
		"id":     dev.ID,
	}).Info("Discovered new device")
	return true
}

// Len returns the number of devices discovered so far.
func (sc *Scan) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.devices.Len()
}

// Stop removes the listener, stops the watcher, and returns the devices in discovery order.
// Concurrent and subsequent calls wait for the first one and return the same result.
func (sc *Scan) Stop() ([]playback.Device, error) {
	sc.stopOnce.Do(sc.stop)
	return sc.result, sc.stopErr
}

func (sc *Scan) stop() {
	sc.mu.Lock()
	sc.stopped = true
	sc.mu.Unlock()

	// Unsubscribe outside the lock: the OS may be blocked delivering an add that needs it.
	sc.unsubscribe()
	stopErr := sc.watcher.Stop()

	sc.mu.Lock()
	defer sc.mu.Unlock()

	devices := make([]playback.Device, 0, sc.devices.Len())
	for pair := sc.devices.Oldest(); pair != nil; pair = pair.Next() {
		devices = append(devices, pair.Value)
	}
	sc.result = devices
	if stopErr != nil {
		sc.stopErr = fmt.Errorf("failed to stop device watcher: %w", stopErr)
	}

	sc.logger.WithField("device_count", len(devices)).Info("Device watcher stopped")
}
