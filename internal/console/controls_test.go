package console

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m0rjc/DeviceChannel/internal/devicechannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender implements devicechannel.Sender for testing.
type recordingSender struct {
	sent []devicechannel.Command
	err  error
}

func (s *recordingSender) SendLED(state bool) error {
	s.sent = append(s.sent, devicechannel.SetLEDCommand(state))
	return s.err
}

func (s *recordingSender) SendBlink() error {
	s.sent = append(s.sent, devicechannel.BlinkCommand())
	return s.err
}

func TestExecute(t *testing.T) {
	tests := []struct {
		line string
		want []devicechannel.Command
	}{
		{"led on", []devicechannel.Command{devicechannel.SetLEDCommand(true)}},
		{"LED 1", []devicechannel.Command{devicechannel.SetLEDCommand(true)}},
		{"led an", []devicechannel.Command{devicechannel.SetLEDCommand(true)}},
		{"led off", []devicechannel.Command{devicechannel.SetLEDCommand(false)}},
		{"led 0", []devicechannel.Command{devicechannel.SetLEDCommand(false)}},
		{"led aus", []devicechannel.Command{devicechannel.SetLEDCommand(false)}},
		{"led", []devicechannel.Command{devicechannel.SetLEDCommand(false)}},
		{"on", []devicechannel.Command{devicechannel.SetLEDCommand(true)}},
		{"off", []devicechannel.Command{devicechannel.SetLEDCommand(false)}},
		{"  blink  ", []devicechannel.Command{devicechannel.BlinkCommand()}},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sender := &recordingSender{}
			require.NoError(t, NewControls(sender).Execute(tt.line))
			assert.Equal(t, tt.want, sender.sent)
		})
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	sender := &recordingSender{}
	err := NewControls(sender).Execute("reboot now")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Empty(t, sender.sent)
}

func TestExecute_PropagatesSendError(t *testing.T) {
	sender := &recordingSender{err: devicechannel.ErrNotConnected}
	err := NewControls(sender).Execute("blink")
	assert.ErrorIs(t, err, devicechannel.ErrNotConnected)
}

func TestParseState(t *testing.T) {
	for _, token := range []string{"on", "true", "1", "yes", "an", "-2", "0.5", "anything"} {
		assert.True(t, ParseState(token), token)
	}
	for _, token := range []string{"", "off", "False", "0", "0.0", "no", "AUS", "null"} {
		assert.False(t, ParseState(token), token)
	}
}

func TestRun_ContinuesAfterErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	input := strings.NewReader("on\nbogus\nblink\n")

	require.NoError(t, NewControls(sender).Run(context.Background(), input))
	assert.Equal(t, []devicechannel.Command{
		devicechannel.SetLEDCommand(true),
		devicechannel.BlinkCommand(),
	}, sender.sent)
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, NewControls(sender).Run(ctx, strings.NewReader("on\noff\n")))
	assert.Empty(t, sender.sent)
}
