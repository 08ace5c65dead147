package selector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/apconnect/internal/playback"
)

const (
	promptText  = "Enter device number: "
	invalidText = "Invalid selection. Please try again."
)

// ErrNoDevices is returned when there is nothing to select from.
var ErrNoDevices = errors.New("no devices found")

// Highlighter decorates a device name for display.
type Highlighter func(a ...interface{}) string

// Selector prompts the user for a device index on a line-oriented console.
type Selector struct {
	in        *bufio.Reader
	out       io.Writer
	highlight Highlighter
	logger    *logrus.Logger
}

// New creates a selector. in is shared with the rest of the flow, so callers
// pass the same *bufio.Reader everywhere. highlight may be nil.
func New(in *bufio.Reader, out io.Writer, highlight Highlighter, logger *logrus.Logger) *Selector {
	if highlight == nil {
		highlight = fmt.Sprint
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Selector{in: in, out: out, highlight: highlight, logger: logger}
}

// Select prints devices and loops until a valid zero-based index is entered.
// End of input returns io.ErrUnexpectedEOF.
func (s *Selector) Select(devices []playback.Device) (int, error) {
	if len(devices) == 0 {
		return 0, ErrNoDevices
	}

	fmt.Fprintln(s.out, "Select a device:")
	for i, dev := range devices {
		fmt.Fprintf(s.out, "%d: %s\n", i, s.highlight(dev.Name))
	}

	for {
		fmt.Fprint(s.out, promptText)

		line, err := s.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return 0, fmt.Errorf("reading selection: %w", io.ErrUnexpectedEOF)
			}
			return 0, fmt.Errorf("reading selection: %w", err)
		}

		if index, ok := ParseIndex(line, len(devices)); ok {
			s.logger.WithFields(logrus.Fields{
				"index":  index,
				"device": devices[index].Name,
			}).Debug("Device selected")
			return index, nil
		}

		s.logger.WithField("input", strings.TrimSpace(line)).Debug("Rejected selection")
		fmt.Fprintln(s.out, invalidText)
	}
}

// ParseIndex parses line as an unsigned integer in [0, count).
func ParseIndex(line string, count int) (int, bool) {
	text := strings.TrimSpace(line)
	text = strings.TrimPrefix(text, "+")
	if text == "" || strings.HasPrefix(text, "+") {
		return 0, false
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil || n >= uint64(count) {
		return 0, false
	}
	return int(n), true
}
