package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDeviceCommand(t *testing.T) {
	tru, fls := true, false

	tests := []struct {
		name    string
		payload string
		want    DeviceCommand
	}{
		{"set led", `{"led":true,"blink":false}`, DeviceCommand{LED: &tru, Blink: &fls}},
		{"blink", `{"led":false,"blink":true}`, DeviceCommand{LED: &fls, Blink: &tru}},
		{"led only", `{"led":false}`, DeviceCommand{LED: &fls}},
		{"non-boolean fields are ignored", `{"led":1,"blink":"yes"}`, DeviceCommand{}},
		{"unrelated object", `{"foo":"bar"}`, DeviceCommand{}},
		{"null", `null`, DeviceCommand{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDeviceCommand([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeDeviceCommand_Invalid(t *testing.T) {
	for _, p := range []string{"", "not json", `{"led":`, `[true]`, `42`} {
		_, err := DecodeDeviceCommand([]byte(p))
		assert.ErrorIs(t, err, ErrInvalidCommand, p)
	}
}
