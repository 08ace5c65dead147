package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apconnect",
		Short: "Connect to a Bluetooth audio source as a playback sink",
		Long: `Audio playback connection tool that:

- Watches for devices that can stream audio to this machine
- Lets you pick one from a numbered list
- Opens an audio playback connection and reports its state until you exit

Run without a subcommand for the interactive flow, or use "list" to only
discover devices.`,
		Version:       formatVersion(version),
		Args:          cobra.NoArgs,
		RunE:          runConnect,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable debug logging (same as --log-level=debug)")
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	cmd.PersistentFlags().String("color", "", "Colorize device names (auto, always, never)")

	cmd.Flags().Duration("connect-timeout", 0, "Timeout for each connection step (default from config: 30s, 0 for none)")

	// Add -v as a short flag for --version
	cmd.Flags().BoolP("version", "v", false, "Show version information")
	cmd.SetVersionTemplate(fmt.Sprintf("apconnect %s (commit %s, built %s)\n", formatVersion(version), commit, date))

	cmd.AddCommand(newListCmd())
	return cmd
}

func main() {
	os.Exit(execute(rootCmd))
}

// execute runs cmd and returns the process exit code. Errors are printed on
// the command's stdout, next to the rest of the transcript.
func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", FormatUserError(err))
		return 1
	}
	return 0
}
