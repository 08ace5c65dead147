package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/srg/apconnect/internal/playback"
)

// FormatUserError turns an error into the message printed after "Error: ".
// Known failures get a hint; everything else is printed as is.
func FormatUserError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, playback.ErrUnsupported):
		return fmt.Sprintf("%s (Windows 10 version 2004 or later is required)", err)
	case errors.Is(err, playback.ErrTimeout):
		return fmt.Sprintf("%s (use --connect-timeout to wait longer)", err)
	case errors.Is(err, playback.ErrAccessDenied):
		return fmt.Sprintf("%s (check that Bluetooth access is allowed in privacy settings)", err)
	case errors.Is(err, playback.ErrNotFound):
		return fmt.Sprintf("%s (the device is no longer available)", err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "input ended before a device was selected"
	default:
		return err.Error()
	}
}
