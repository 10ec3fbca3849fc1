package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidCommand is returned for command frames that are not a JSON object.
var ErrInvalidCommand = errors.New("invalid command JSON")

// Telemetry is broadcast to every client once per interval.
type Telemetry struct {
	Uptime int64 `json:"uptime"` // seconds since boot
	LED    bool  `json:"led"`
}

// Greeting is sent to a client once, right after the upgrade.
type Greeting struct {
	Status string `json:"status"`
}

// ConnectedGreeting creates the greeting sent on connect.
func ConnectedGreeting() Greeting {
	return Greeting{Status: "connected"}
}

// ClientInfo identifies the connection a command arrived on.
type ClientInfo struct {
	ID         string // unique per connection
	RemoteAddr string
}

// DeviceCommand is a client→device command. A field is nil unless it was
// present in the frame and held a JSON boolean.
type DeviceCommand struct {
	LED   *bool
	Blink *bool
}

// DecodeDeviceCommand parses a command frame.
func DecodeDeviceCommand(data []byte) (DeviceCommand, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return DeviceCommand{}, ErrInvalidCommand
	}
	return DeviceCommand{
		LED:   boolField(fields, "led"),
		Blink: boolField(fields, "blink"),
	}, nil
}

func boolField(fields map[string]json.RawMessage, name string) *bool {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var v bool
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		v = true
	case "false":
		v = false
	default:
		return nil
	}
	return &v
}
