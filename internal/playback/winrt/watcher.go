//go:build windows

package winrt

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
)

var (
	iidDeviceAddedHandler = TypedEventHandlerIID(
		RuntimeClassSignature(deviceWatcherClass, iidDeviceWatcher),
		RuntimeClassSignature(deviceInformationClass, iidDeviceInformation),
	)
	iidEnumerationCompletedHandler = TypedEventHandlerIID(
		RuntimeClassSignature(deviceWatcherClass, iidDeviceWatcher),
		inspectableSignature,
	)
)

// watcher wraps an IDeviceWatcher.
type watcher struct {
	ptr    uintptr
	logger *logrus.Logger

	mu                sync.Mutex
	completedDelegate uintptr
	completedToken    int64
}

func newWatcher(ptr uintptr, logger *logrus.Logger) (*watcher, error) {
	w := &watcher{ptr: ptr, logger: logger}

	d, err := newDelegate(iidEnumerationCompletedHandler, logger, func(_, _ uintptr) {
		logger.Debug("Initial device enumeration completed")
	})
	if err != nil {
		release(ptr)
		return nil, err
	}
	if err := check("DeviceWatcher.EnumerationCompleted", vcall(ptr, slotAddEnumerationCompleted, d, uintptr(unsafe.Pointer(&w.completedToken)))); err != nil {
		release(d)
		release(ptr)
		return nil, err
	}
	w.completedDelegate = d
	return w, nil
}

// OnAdded subscribes fn to DeviceWatcher.Added.
func (w *watcher) OnAdded(fn func(playback.Device)) (func(), error) {
	d, err := newDelegate(iidDeviceAddedHandler, w.logger, func(_, args uintptr) {
		if args == 0 {
			return
		}
		dev, err := readDeviceInformation(args)
		if err != nil {
			w.logger.WithError(err).Warn("Failed to read added device")
			return
		}
		fn(dev)
	})
	if err != nil {
		return nil, err
	}

	var token int64
	if err := check("DeviceWatcher.Added", vcall(w.ptr, slotAddAdded, d, uintptr(unsafe.Pointer(&token)))); err != nil {
		release(d)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := check("DeviceWatcher.RemoveAdded", vcall(w.ptr, slotRemoveAdded, uintptr(token))); err != nil {
				w.logger.WithError(err).Debug("Failed to remove Added handler")
			}
			release(d)
		})
	}, nil
}

func readDeviceInformation(info uintptr) (playback.Device, error) {
	id, err := getString("DeviceInformation.Id", info, slotDeviceInfoID)
	if err != nil {
		return playback.Device{}, err
	}
	name, err := getString("DeviceInformation.Name", info, slotDeviceInfoName)
	if err != nil {
		return playback.Device{}, err
	}
	return playback.Device{ID: id, Name: name}, nil
}

func (w *watcher) Start() error {
	return check("DeviceWatcher.Start", vcall(w.ptr, slotWatcherStart))
}

// Stop stops a running watcher and releases it. A watcher that never started is only released.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ptr == 0 {
		return nil
	}

	var stopErr error
	status, err := getInt32("DeviceWatcher.Status", w.ptr, slotWatcherStatus)
	switch {
	case err != nil:
		stopErr = err
	case status == watcherStarted || status == watcherEnumerationCompleted:
		stopErr = check("DeviceWatcher.Stop", vcall(w.ptr, slotWatcherStop))
	default:
		w.logger.WithField("status", status).Debug("Device watcher not running, skipping stop")
	}

	if w.completedDelegate != 0 {
		vcall(w.ptr, slotRemoveEnumerationComplete, uintptr(w.completedToken))
		release(w.completedDelegate)
		w.completedDelegate = 0
	}
	release(w.ptr)
	w.ptr = 0

	return stopErr
}
