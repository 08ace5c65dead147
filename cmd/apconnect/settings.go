package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/apconnect/internal/selector"
	"github.com/srg/apconnect/pkg/config"
	"golang.org/x/term"
)

// loadConfig reads --config and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("color") {
		mode, _ := cmd.Flags().GetString("color")
		if !slices.Contains(config.ColorModes, mode) {
			return nil, fmt.Errorf("invalid color mode '%s': must be one of %v", mode, config.ColorModes)
		}
		cfg.Color = mode
	}
	if f := cmd.Flags().Lookup("connect-timeout"); f != nil && f.Changed {
		timeout, _ := cmd.Flags().GetDuration("connect-timeout")
		if timeout < 0 {
			return nil, fmt.Errorf("connect timeout must not be negative: %s", timeout)
		}
		cfg.ConnectTimeout = timeout
	}
	return cfg, nil
}

// newHighlighter returns the cyan decorator for device names written to out.
func newHighlighter(out io.Writer, mode string) selector.Highlighter {
	c := color.New(color.FgCyan)
	switch mode {
	case "always":
		c.EnableColor()
	case "never":
		c.DisableColor()
	default:
		if isTerminal(out) && !color.NoColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return c.SprintFunc()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
