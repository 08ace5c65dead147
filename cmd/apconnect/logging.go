package main

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/apconnect/pkg/config"
)

// configureLogger creates a logger with the appropriate log level based on flags.
// It respects both --log-level and --verbose flags, with --log-level taking precedence.
// Without either flag the level from cfg applies; an empty level is silent.
// Log output goes to the command's stderr.
func configureLogger(cmd *cobra.Command, verboseFlagName string, cfg *config.Config) (*logrus.Logger, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	level := cfg.LogLevel

	// Check --log-level first (takes precedence)
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr != "" {
		if !slices.Contains(config.LogLevels, logLevelStr) {
			return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
		}
		level = logLevelStr
	} else if verbose, _ := cmd.Flags().GetBool(verboseFlagName); verbose {
		level = "debug"
	}

	effective := *cfg
	effective.LogLevel = level
	return effective.NewLogger(cmd.ErrOrStderr())
}
