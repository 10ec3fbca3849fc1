package devicechannel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Status
	}{
		{"string uptime and led true", `{"uptime":"3h12m","led":true}`, Status{Uptime: "3h12m", HasUptime: true, LED: true, HasLED: true}},
		{"numeric uptime only", `{"uptime":42}`, Status{Uptime: "42", HasUptime: true}},
		{"zero uptime is present", `{"uptime":0}`, Status{Uptime: "0", HasUptime: true}},
		{"empty string uptime is present", `{"uptime":""}`, Status{Uptime: "", HasUptime: true}},
		{"null uptime renders empty", `{"uptime":null}`, Status{Uptime: "", HasUptime: true}},
		{"fractional uptime", `{"uptime":1.50}`, Status{Uptime: "1.5", HasUptime: true}},
		{"exponent uptime", `{"uptime":1e3}`, Status{Uptime: "1000", HasUptime: true}},
		{"bool uptime", `{"uptime":true}`, Status{Uptime: "true", HasUptime: true}},
		{"tiny uptime uses exponent", `{"uptime":1e-7}`, Status{Uptime: "1e-7", HasUptime: true}},
		{"tiny negative fraction", `{"uptime":-1.5e-7}`, Status{Uptime: "-1.5e-7", HasUptime: true}},
		{"small fraction stays decimal", `{"uptime":0.000001}`, Status{Uptime: "0.000001", HasUptime: true}},
		{"huge uptime uses exponent", `{"uptime":1e21}`, Status{Uptime: "1e+21", HasUptime: true}},
		{"overflow renders infinity", `{"uptime":1e400}`, Status{Uptime: "Infinity", HasUptime: true}},
		{"negative overflow", `{"uptime":-1e400}`, Status{Uptime: "-Infinity", HasUptime: true}},
		{"object uptime", `{"uptime": {"h": 3}}`, Status{Uptime: "[object Object]", HasUptime: true}},
		{"array uptime joins elements", `{"uptime":[1, 2]}`, Status{Uptime: "1,2", HasUptime: true}},
		{"nested array flattens", `{"uptime":[[1,"a"],null,{"x":1}]}`, Status{Uptime: "1,a,,[object Object]", HasUptime: true}},
		{"empty array", `{"uptime":[]}`, Status{Uptime: "", HasUptime: true}},
		{"led false", `{"led":false}`, Status{LED: false, HasLED: true}},
		{"led one", `{"led":1}`, Status{LED: true, HasLED: true}},
		{"led zero", `{"led":0}`, Status{LED: false, HasLED: true}},
		{"led string", `{"led":"on"}`, Status{LED: true, HasLED: true}},
		{"led empty string", `{"led":""}`, Status{LED: false, HasLED: true}},
		{"led null", `{"led":null}`, Status{LED: false, HasLED: true}},
		{"unrelated object", `{"foo":"bar"}`, Status{}},
		{"greeting", `{"status":"connected"}`, Status{}},
		{"empty object", `{}`, Status{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Ignored(t *testing.T) {
	payloads := []string{
		``,
		`not json`,
		`{"uptime":`,
		`null`,
		`42`,
		`"uptime"`,
		`[{"uptime":1}]`,
		`true`,
	}

	for _, p := range payloads {
		t.Run(p, func(t *testing.T) {
			got, err := ParseStatus([]byte(p))
			assert.True(t, errors.Is(err, ErrNotStatus))
			assert.Equal(t, Status{}, got)
		})
	}
}
