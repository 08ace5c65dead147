package playback

import (
	"errors"
	"fmt"
)

// Operation errors
var (
	ErrUnsupported = errors.New("audio playback connections are not supported on this platform")
	ErrTimeout     = errors.New("timeout")
	ErrNotStarted  = errors.New("watcher not started")
	ErrClosed      = errors.New("closed")
)

// OSError is a failed call into the OS device or audio subsystem.
type OSError struct {
	Op   string // e.g. "DeviceWatcher.Start"
	Code uint32 // HRESULT
}

func (e *OSError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s failed: HRESULT 0x%08X", e.Op, e.Code)
}

// Is matches another *OSError with the same code; an empty Op on target matches any operation.
func (e *OSError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*OSError)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return e.Code == t.Code
}

// Well-known HRESULTs surfaced by the playback APIs.
var (
	ErrAccessDenied = &OSError{Code: 0x80070005}
	ErrNotFound     = &OSError{Code: 0x80070490}
)

// IsOSError reports whether err wraps an *OSError with the given code.
func IsOSError(err error, code uint32) bool {
	var oerr *OSError
	if errors.As(err, &oerr) {
		return oerr.Code == code
	}
	return false
}
