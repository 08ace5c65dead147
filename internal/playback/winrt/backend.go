//go:build windows

package winrt

import (
	"fmt"
	"sync"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
)

// roInitMultithreaded is RO_INIT_MULTITHREADED.
const roInitMultithreaded = 1

// Backend is the WinRT implementation of playback.Backend.
type Backend struct {
	logger *logrus.Logger

	connStatics   uintptr // IAudioPlaybackConnectionStatics
	deviceStatics uintptr // IDeviceInformationStatics
	initialized   bool

	closeOnce sync.Once
}

var _ playback.Backend = (*Backend)(nil)

// NewBackend initializes the Windows Runtime for this process and resolves the
// activation factories the backend needs.
func NewBackend(logger *logrus.Logger) (*Backend, error) {
	if logger == nil {
		logger = logrus.New()
	}
	b := &Backend{logger: logger}

	if err := ole.RoInitialize(roInitMultithreaded); err != nil {
		switch code := oleCode(err); code {
		case sFalse:
			b.initialized = true
		case rpcChangedMode:
			logger.Debug("Windows Runtime already initialized with another apartment model")
		default:
			return nil, &playback.OSError{Op: "RoInitialize", Code: code}
		}
	} else {
		b.initialized = true
	}

	var err error
	if b.connStatics, err = activationFactory(audioPlaybackConnectionClass, iidAudioPlaybackConnectionStatics); err != nil {
		b.Close()
		return nil, err
	}
	if b.deviceStatics, err = activationFactory(deviceInformationClass, iidDeviceInformationStatics); err != nil {
		b.Close()
		return nil, err
	}

	logger.Debug("WinRT playback backend ready")
	return b, nil
}

func activationFactory(class, iid string) (uintptr, error) {
	ins, err := ole.RoGetActivationFactory(class, ole.NewGUID("{"+iid+"}"))
	if err != nil {
		return 0, fmt.Errorf("%s is not available: %w", class,
			&playback.OSError{Op: "RoGetActivationFactory", Code: oleCode(err)})
	}
	return uintptr(unsafe.Pointer(ins)), nil
}

// DeviceSelector returns AudioPlaybackConnection.GetDeviceSelector().
func (b *Backend) DeviceSelector() (string, error) {
	return getString("AudioPlaybackConnection.GetDeviceSelector", b.connStatics, slotGetDeviceSelector)
}

// NewWatcher returns DeviceInformation.CreateWatcher(selector).
func (b *Backend) NewWatcher(selector string) (playback.Watcher, error) {
	const op = "DeviceInformation.CreateWatcher"

	var ptr uintptr
	err := withHString(op, selector, func(h ole.HString) error {
		return check(op, vcall(b.deviceStatics, slotCreateWatcherAqsFilter, uintptr(h), uintptr(unsafe.Pointer(&ptr))))
	})
	if err != nil {
		return nil, err
	}
	return newWatcher(ptr, b.logger)
}

// Connect returns AudioPlaybackConnection.TryCreateFromId(deviceID).
func (b *Backend) Connect(deviceID string) (playback.Connection, error) {
	const op = "AudioPlaybackConnection.TryCreateFromId"

	var ptr uintptr
	err := withHString(op, deviceID, func(h ole.HString) error {
		return check(op, vcall(b.connStatics, slotTryCreateFromID, uintptr(h), uintptr(unsafe.Pointer(&ptr))))
	})
	if err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, fmt.Errorf("device %q: %w", deviceID, &playback.OSError{Op: op, Code: eNotFound})
	}
	return newConnection(ptr, deviceID, b.logger), nil
}

// Close releases the activation factories and uninitializes the runtime.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		release(b.connStatics)
		release(b.deviceStatics)
		b.connStatics, b.deviceStatics = 0, 0
		if b.initialized {
			ole.CoUninitialize()
		}
	})
	return nil
}
