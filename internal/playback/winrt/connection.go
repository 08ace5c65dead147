//go:build windows

package winrt

import (
	"sync"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
)

var iidStateChangedHandler = TypedEventHandlerIID(
	RuntimeClassSignature(audioPlaybackConnectionClass, iidAudioPlaybackConnection),
	inspectableSignature,
)

// connection wraps an IAudioPlaybackConnection.
type connection struct {
	ptr      uintptr
	deviceID string
	logger   *logrus.Logger

	closeOnce sync.Once
}

func newConnection(ptr uintptr, deviceID string, logger *logrus.Logger) *connection {
	return &connection{ptr: ptr, deviceID: deviceID, logger: logger}
}

func (c *connection) DeviceID() string {
	if id, err := getString("AudioPlaybackConnection.DeviceId", c.ptr, slotConnDeviceID); err == nil && id != "" {
		return id
	}
	return c.deviceID
}

func (c *connection) State() (playback.State, error) {
	v, err := getInt32("AudioPlaybackConnection.State", c.ptr, slotConnState)
	return playback.State(v), err
}

// OnStateChanged subscribes fn to AudioPlaybackConnection.StateChanged. The
// handler reads the current state from the sender.
func (c *connection) OnStateChanged(fn func(playback.State)) (func(), error) {
	d, err := newDelegate(iidStateChangedHandler, c.logger, func(sender, _ uintptr) {
		if sender == 0 {
			return
		}
		v, err := getInt32("AudioPlaybackConnection.State", sender, slotConnState)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to read connection state")
			return
		}
		fn(playback.State(v))
	})
	if err != nil {
		return nil, err
	}

	var token int64
	if err := check("AudioPlaybackConnection.StateChanged", vcall(c.ptr, slotAddStateChanged, d, uintptr(unsafe.Pointer(&token)))); err != nil {
		release(d)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := check("AudioPlaybackConnection.RemoveStateChanged", vcall(c.ptr, slotRemoveStateChanged, uintptr(token))); err != nil {
				c.logger.WithError(err).Debug("Failed to remove StateChanged handler")
			}
			release(d)
		})
	}, nil
}

func (c *connection) Start() error {
	return check("AudioPlaybackConnection.Start", vcall(c.ptr, slotConnStart))
}

// Open calls the synchronous AudioPlaybackConnection.Open and returns the
// result status.
func (c *connection) Open() (playback.OpenStatus, error) {
	var result uintptr
	if err := check("AudioPlaybackConnection.Open", vcall(c.ptr, slotConnOpen, uintptr(unsafe.Pointer(&result)))); err != nil {
		return playback.OpenUnknownFailure, err
	}
	defer release(result)

	status, err := getInt32("AudioPlaybackConnectionOpenResult.Status", result, slotOpenResultStatus)
	if err != nil {
		return playback.OpenUnknownFailure, err
	}
	if ext, err := getInt32("AudioPlaybackConnectionOpenResult.ExtendedError", result, slotOpenResultExtendedErr); err == nil && ext != 0 {
		c.logger.WithFields(logrus.Fields{
			"status":         playback.OpenStatus(status),
			"extended_error": uint32(ext),
		}).Debug("Open returned an extended error")
	}
	return playback.OpenStatus(status), nil
}

// Close calls IClosable.Close and drops the reference.
func (c *connection) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		closable, err := queryInterface("AudioPlaybackConnection.QueryInterface", c.ptr, ole.NewGUID("{"+iidClosable+"}"))
		if err != nil {
			closeErr = err
		} else {
			closeErr = check("AudioPlaybackConnection.Close", vcall(closable, slotClose))
			release(closable)
		}
		release(c.ptr)
		c.ptr = 0
	})
	return closeErr
}
