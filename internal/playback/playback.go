package playback

import "fmt"

// Device is a playback-capable endpoint reported by the OS device watcher.
type Device struct {
	ID   string `json:"id"`   // Opaque platform device id, used to open a connection
	Name string `json:"name"` // Display name, presentation only
}

// State is the OS-reported lifecycle value of a playback connection.
type State int32

const (
	StateClosed State = 0
	StateOpened State = 1
)

// String returns "Opened" or "Closed"; any other value falls back to its raw representation.
func (s State) String() string {
	switch s {
	case StateOpened:
		return "Opened"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("AudioPlaybackConnectionState(%d)", int32(s))
	}
}

// OpenStatus is the OS-reported outcome of opening a playback connection.
type OpenStatus int32

const (
	OpenSuccess         OpenStatus = 0
	OpenRequestTimedOut OpenStatus = 1
	OpenDeniedBySystem  OpenStatus = 2
	OpenUnknownFailure  OpenStatus = 3
)

func (s OpenStatus) String() string {
	switch s {
	case OpenSuccess:
		return "Success"
	case OpenDeniedBySystem:
		return "DeniedBySystem"
	case OpenRequestTimedOut:
		return "RequestTimedOut"
	case OpenUnknownFailure:
		return "UnknownFailure"
	default:
		return fmt.Sprintf("AudioPlaybackConnectionOpenResultStatus(%d)", int32(s))
	}
}

// Backend is the entry point into the OS device and audio subsystems.
type Backend interface {
	// DeviceSelector returns the opaque filter string that matches playback-capable devices.
	DeviceSelector() (string, error)
	// NewWatcher creates a device watcher filtered by selector. The watcher is not started.
	NewWatcher(selector string) (Watcher, error)
	// Connect creates a playback connection for the given device id. The connection is not started.
	Connect(deviceID string) (Connection, error)
	Close() error
}

// Watcher reports devices matching its selector as they appear.
type Watcher interface {
	// OnAdded registers fn for every discovered device. The returned func removes the listener.
	OnAdded(fn func(Device)) (unsubscribe func(), err error)
	Start() error
	Stop() error
}

// Connection is a single live handle to a playback device.
type Connection interface {
	DeviceID() string
	State() (State, error)
	// OnStateChanged registers fn for every state transition. The returned func removes the listener.
	OnStateChanged(fn func(State)) (unsubscribe func(), err error)
	Start() error
	Open() (OpenStatus, error)
	Close() error
}
