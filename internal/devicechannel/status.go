package devicechannel

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotStatus is returned by ParseStatus for payloads that are not a JSON
// object. The channel also carries unrelated traffic, so this is not a fault.
var ErrNotStatus = errors.New("payload is not a status message")

// Status is the decoded form of an inbound status message. Each field has an
// explicit presence flag: a key that exists with value 0, "" or null is
// present, a missing key is not.
type Status struct {
	Uptime    string // display text of the uptime value
	HasUptime bool
	LED       bool // truthiness of the led value
	HasLED    bool
}

// ParseStatus decodes a status message. It never panics; anything that is not
// a JSON object yields ErrNotStatus.
func ParseStatus(payload []byte) (Status, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return Status{}, ErrNotStatus
	}

	var s Status
	if raw, ok := fields["uptime"]; ok {
		s.Uptime = displayText(raw)
		s.HasUptime = true
	}
	if raw, ok := fields["led"]; ok {
		s.LED = truthy(raw)
		s.HasLED = true
	}
	return s, nil
}

// displayText renders a JSON value the way it appears as element text.
// Strings lose their quotes, numbers use their shortest form and null renders
// as nothing. Arrays join their elements with commas and objects collapse to
// "[object Object]", as a browser's String() does.
func displayText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case 'n':
		return ""
	case 't', 'f':
		return string(raw)
	case '{':
		return "[object Object]"
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return string(raw)
		}
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = displayText(e)
		}
		return strings.Join(parts, ",")
	default:
		return formatNumber(raw)
	}
}

func formatNumber(raw json.RawMessage) string {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return string(raw)
	}
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case math.Abs(f) >= 1e21 || math.Abs(f) < 1e-6:
		return trimExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// trimExponent turns "1.5e-07" into "1.5e-7". The sign is kept.
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// truthy reports whether a JSON value counts as "on". false, null, numeric
// zero and the empty string are off; everything else is on.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'f', 'n':
		return false
	case 't', '{', '[':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}
