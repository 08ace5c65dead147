package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/apconnect/internal/backend"
	"github.com/srg/apconnect/internal/connection"
	"github.com/srg/apconnect/internal/groutine"
	"github.com/srg/apconnect/internal/playback"
	"github.com/srg/apconnect/internal/scan"
	"github.com/srg/apconnect/internal/selector"
)

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Configure logger based on --log-level and --verbose flags
	logger, err := configureLogger(cmd, "verbose", cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	out := &lockedWriter{w: cmd.OutOrStdout()}
	highlight := newHighlighter(cmd.OutOrStdout(), cfg.Color)
	log := logger.WithField("session", uuid.NewString())

	b, err := backend.Factory(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.WithError(err).Warn("Failed to close playback backend")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintln(out, "Scanning for devices. Press enter to stop scanning and select a device.")
	sc, err := scan.NewScanner(b, logger, func(dev playback.Device) {
		fmt.Fprintf(out, "[DeviceWatcher] Added: %s\n", highlight(dev.Name))
	}).Start()
	if err != nil {
		return err
	}
	defer func() { _, _ = sc.Stop() }()

	if _, err := readLine(ctx, in, "wait-for-scan-stop"); err != nil {
		return err
	}

	devices, err := sc.Stop()
	if err != nil {
		return err
	}
	log.WithField("device_count", len(devices)).Debug("Scan finished")

	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found.")
		return nil
	}

	sel := selector.New(in, out, highlight, logger)
	index, err := groutine.Call(ctx, "select-device", func() (int, error) {
		return sel.Select(devices)
	}, nil)
	if err != nil {
		return err
	}
	dev := devices[index]

	manager := connection.NewManager(b, out, logger, &connection.Options{Timeout: cfg.ConnectTimeout})
	session, err := manager.Connect(ctx, dev)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close playback connection")
		}
	}()

	fmt.Fprintf(out, "Connected to device: %s\n", dev.Name)
	fmt.Fprintln(out, "Waiting for connection. Press enter to exit.")

	if err := session.Wait(ctx, in); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"device": dev.Name,
		"id":     dev.ID,
	}).Info("Exiting")
	return nil
}

// readLine reads one line from in; end of input counts as a line.
// A cancelled ctx abandons the read.
func readLine(ctx context.Context, in *bufio.Reader, name string) (string, error) {
	return groutine.Call(ctx, name, func() (string, error) {
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return line, fmt.Errorf("reading input: %w", err)
		}
		return line, nil
	}, nil)
}

// lockedWriter serializes writes coming from OS callbacks and the main flow.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
