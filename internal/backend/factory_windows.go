//go:build windows

package backend

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
	"github.com/srg/apconnect/internal/playback/winrt"
)

func newPlatformBackend(logger *logrus.Logger) (playback.Backend, error) {
	b, err := winrt.NewBackend(logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}
