//go:build !windows

package backend

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
)

func newPlatformBackend(logger *logrus.Logger) (playback.Backend, error) {
	logger.WithField("os", runtime.GOOS).Debug("No playback backend for this platform")
	return nil, playback.ErrUnsupported
}
