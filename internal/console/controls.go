// Package console provides line-oriented controls for a device channel.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m0rjc/DeviceChannel/internal/devicechannel"
)

// ErrUnknownCommand is returned for input lines that name no control.
var ErrUnknownCommand = errors.New("unknown command")

// Controls maps console input onto a channel's send actions.
type Controls struct {
	sender devicechannel.Sender
}

// NewControls creates controls bound to sender.
func NewControls(sender devicechannel.Sender) *Controls {
	return &Controls{sender: sender}
}

// Execute runs a single command line:
//
//	led <state>   switch the LED; state is coerced, see ParseState
//	on | off      shortcuts for led on / led off
//	blink         trigger a blink
//
// Blank lines do nothing.
func (c *Controls) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "led":
		state := false
		if len(fields) > 1 {
			state = ParseState(fields[1])
		}
		return c.sender.SendLED(state)
	case "on":
		return c.sender.SendLED(true)
	case "off":
		return c.sender.SendLED(false)
	case "blink":
		return c.sender.SendBlink()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

// ParseState coerces a console token to a boolean. The empty string, zero and
// the words off/false/no/aus are false; every other token is true.
func ParseState(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "off", "false", "no", "aus", "null", "undefined", "nan":
		return false
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f != 0
	}
	return true
}

// Run executes commands read from r until EOF or ctx is cancelled. A failing
// line is logged and does not stop the loop.
func (c *Controls) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if err := c.Execute(line); err != nil {
			slog.Warn("console.command_failed",
				"component", "console",
				"event", "console.execute_error",
				"line", line,
				"error", err,
			)
		}
	}
	return scanner.Err()
}
