package backend

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
)

// Factory creates the playback backend for the running platform.
// This is a variable so that it can be overridden in tests.
var Factory = func(logger *logrus.Logger) (playback.Backend, error) {
	if logger == nil {
		logger = logrus.New()
	}
	return newPlatformBackend(logger)
}
