// Package device models the simulated LED device: an LED, a blink mode, a
// seconds counter, network settings and a boot time from which uptime is
// derived. A restart can be scheduled; it takes effect on the first access
// after it falls due.
package device

import (
	"log/slog"
	"sync"
	"time"
)

// Simulated addressing. In AP mode the device serves its own network; in STA
// mode it reports the lease it would get from the joined network.
const (
	APAddress  = "192.168.10.1"
	APSubnet   = "255.255.255.0"
	STAAddress = "192.168.1.100"
	STASubnet  = "255.255.255.0"

	ModeAP  = "AP"
	ModeSTA = "STA"
)

// State is a point-in-time view of the device.
type State struct {
	Uptime  time.Duration
	LED     bool
	Blink   bool
	Counter int64
}

// UptimeSeconds returns uptime in whole seconds, as reported on the wire.
func (s State) UptimeSeconds() int64 {
	return int64(s.Uptime / time.Second)
}

// NetworkSettings are the credentials held in memory. Nothing is persisted;
// a fresh process starts from DefaultNetworkSettings.
type NetworkSettings struct {
	STASSID     string
	STAPassword string
	APSSID      string
	APPassword  string
}

// DefaultNetworkSettings has no station credentials, so the device boots
// into AP mode.
func DefaultNetworkSettings() NetworkSettings {
	return NetworkSettings{
		APSSID:     "ESP32-Setup",
		APPassword: "admin",
	}
}

// Network describes the network the device is on.
type Network struct {
	Mode   string
	SSID   string
	IP     string
	Subnet string
}

// Device is safe for concurrent use by the broadcast loop, the WebSocket
// command handlers and the HTTP pages.
type Device struct {
	mu          sync.Mutex
	led         bool
	blink       bool
	bootAt      time.Time
	counterFrom time.Time
	now         func() time.Time

	// settings is what the config page last saved. bootMode is chosen
	// from the settings in force at boot and only changes on restart.
	settings  NetworkSettings
	bootMode  string
	bootSSID  string
	restartAt time.Time
}

// New creates a device that booted now, with the LED off.
func New() *Device {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Device {
	d := &Device{
		now:      now,
		settings: DefaultNetworkSettings(),
	}
	d.bootLocked()
	return d
}

// bootLocked resets the device to its power-on state.
func (d *Device) bootLocked() {
	d.bootAt = d.now()
	d.counterFrom = d.bootAt
	d.led = false
	d.blink = false
	d.restartAt = time.Time{}

	if d.settings.STASSID != "" && d.settings.STAPassword != "" {
		d.bootMode = ModeSTA
		d.bootSSID = d.settings.STASSID
	} else {
		d.bootMode = ModeAP
		d.bootSSID = ""
	}
}

// restartIfDueLocked performs a scheduled restart once its time has come.
func (d *Device) restartIfDueLocked() {
	if d.restartAt.IsZero() || d.now().Before(d.restartAt) {
		return
	}
	d.bootLocked()
	slog.Info("device.restarted",
		"component", "device",
		"event", "restart",
		"wifi_mode", d.bootMode,
	)
}

// Apply updates blink mode and/or LED state. A nil field is left unchanged.
// Blink is applied before LED.
func (d *Device) Apply(led, blink *bool) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()

	if blink != nil {
		d.blink = *blink
	}
	if led != nil {
		d.led = *led
	}
	return d.stateLocked()
}

// Tick advances the device by one broadcast interval: while blinking the LED
// toggles. It returns the resulting state.
func (d *Device) Tick() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()

	if d.blink {
		d.led = !d.led
	}
	return d.stateLocked()
}

// Snapshot returns the current state without advancing it.
func (d *Device) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()
	return d.stateLocked()
}

// ResetCounter sets the seconds counter back to zero.
func (d *Device) ResetCounter() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()
	d.counterFrom = d.now()
}

// Network reports the current mode and addressing. The SSID in AP mode is
// the saved AP name, which takes effect without a restart.
func (d *Device) Network() Network {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()

	if d.bootMode == ModeSTA {
		return Network{Mode: ModeSTA, SSID: d.bootSSID, IP: STAAddress, Subnet: STASubnet}
	}
	return Network{Mode: ModeAP, SSID: d.settings.APSSID, IP: APAddress, Subnet: APSubnet}
}

// Settings returns the saved network settings.
func (d *Device) Settings() NetworkSettings {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()
	return d.settings
}

// SaveSettings merges update into the saved settings. Empty fields leave the
// saved value unchanged. The mode only follows the new settings after a
// restart.
func (d *Device) SaveSettings(update NetworkSettings) NetworkSettings {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()

	if update.STASSID != "" {
		d.settings.STASSID = update.STASSID
	}
	if update.STAPassword != "" {
		d.settings.STAPassword = update.STAPassword
	}
	if update.APSSID != "" {
		d.settings.APSSID = update.APSSID
	}
	if update.APPassword != "" {
		d.settings.APPassword = update.APPassword
	}
	return d.settings
}

// ScheduleRestart arranges a restart after delay and returns when it is due.
// A later call replaces an earlier one.
func (d *Device) ScheduleRestart(delay time.Duration) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()
	d.restartAt = d.now().Add(delay)
	return d.restartAt
}

// RestartPending reports whether a restart is scheduled but not yet done.
func (d *Device) RestartPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartIfDueLocked()
	return !d.restartAt.IsZero()
}

func (d *Device) stateLocked() State {
	now := d.now()
	return State{
		Uptime:  now.Sub(d.bootAt),
		LED:     d.led,
		Blink:   d.blink,
		Counter: int64(now.Sub(d.counterFrom) / time.Second),
	}
}
