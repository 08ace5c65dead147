package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/apconnect/internal/backend"
	"github.com/srg/apconnect/internal/playback"
	"github.com/srg/apconnect/internal/scan"
	"github.com/srg/apconnect/pkg/config"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List devices that can stream audio to this machine",
		Long: `Watch for audio playback devices for a fixed duration and print them.

No connection is attempted. Press Ctrl+C to stop early and print what was found.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().DurationP("duration", "d", 0, "Scan duration (default from config: 5s)")
	cmd.Flags().StringP("format", "f", "", "Output format (table, json)")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("format") {
		cfg.OutputFormat, _ = cmd.Flags().GetString("format")
	}
	if !slices.Contains(config.OutputFormats, cfg.OutputFormat) {
		return fmt.Errorf("invalid format '%s': must be one of %v", cfg.OutputFormat, config.OutputFormats)
	}
	if cmd.Flags().Changed("duration") {
		cfg.ListDuration, _ = cmd.Flags().GetDuration("duration")
	}
	if cfg.ListDuration <= 0 {
		return fmt.Errorf("scan duration must be positive: %s", cfg.ListDuration)
	}

	logger, err := configureLogger(cmd, "verbose", cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	b, err := backend.Factory(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close playback backend")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.ListDuration)
	defer cancel()

	devices, err := scan.NewScanner(b, logger, nil).Collect(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.OutputFormat == "json" {
		return writeDevicesJSON(out, devices)
	}
	return writeDevicesTable(out, devices)
}

func writeDevicesJSON(w io.Writer, devices []playback.Device) error {
	if devices == nil {
		devices = []playback.Device{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(devices)
}

func writeDevicesTable(w io.Writer, devices []playback.Device) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No devices found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tID")
	for i, dev := range devices {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i, dev.Name, dev.ID)
	}
	return tw.Flush()
}
