package devicecontrol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/db/commandaudit"
	"github.com/m0rjc/DeviceChannel/internal/device"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
)

// RestartDelay is how long after a saved configuration the device restarts,
// giving the response time to reach the browser.
const RestartDelay = 2 * time.Second

// Service applies client commands to the simulated device and records them
// in the command audit log.
type Service struct {
	device *device.Device
	conns  *db.Connections
}

// New creates a device control service. conns may be nil, or carry a nil DB,
// in which case commands are applied but not audited.
func New(dev *device.Device, conns *db.Connections) *Service {
	return &Service{
		device: dev,
		conns:  conns,
	}
}

// ApplyCommand implements websocket.CommandSink.
//
// A command with neither field set is a no-op and is not audited. The device
// state changes even if the audit write fails; the error is still returned
// so the caller can count it.
func (s *Service) ApplyCommand(ctx context.Context, client websocket.ClientInfo, cmd websocket.DeviceCommand) error {
	if cmd.LED == nil && cmd.Blink == nil {
		slog.Debug("devicecontrol.command.empty",
			"component", "devicecontrol",
			"event", "command.empty",
			"conn_id", client.ID,
		)
		return nil
	}

	state := s.device.Apply(cmd.LED, cmd.Blink)

	slog.Info("devicecontrol.command.applied",
		"component", "devicecontrol",
		"event", "command.applied",
		"conn_id", client.ID,
		"remote_addr", client.RemoteAddr,
		"led", state.LED,
		"blink", state.Blink,
	)

	if s.conns == nil || s.conns.DB == nil {
		return nil
	}

	entry := &db.CommandAuditLog{
		ConnectionID: client.ID,
		RemoteAddr:   client.RemoteAddr,
		LED:          cmd.LED,
		Blink:        cmd.Blink,
	}
	if err := commandaudit.Create(s.conns.WithContext(ctx), entry); err != nil {
		return fmt.Errorf("failed to write command audit: %w", err)
	}
	return nil
}

// Status returns the device state without advancing it.
func (s *Service) Status() device.State {
	return s.device.Snapshot()
}

// ResetCounter sets the device's seconds counter back to zero.
func (s *Service) ResetCounter() {
	s.device.ResetCounter()
	slog.Info("devicecontrol.counter.reset",
		"component", "devicecontrol",
		"event", "counter.reset",
	)
}

// Network returns the device's current mode and addressing.
func (s *Service) Network() device.Network {
	return s.device.Network()
}

// Settings returns the saved network settings.
func (s *Service) Settings() device.NetworkSettings {
	return s.device.Settings()
}

// SaveSettings stores the non-empty fields of update and, if restart is set,
// schedules a restart after RestartDelay. It returns when the restart is due,
// or the zero time if none was requested.
func (s *Service) SaveSettings(update device.NetworkSettings, restart bool) time.Time {
	saved := s.device.SaveSettings(update)

	slog.Info("devicecontrol.config.saved",
		"component", "devicecontrol",
		"event", "config.saved",
		"sta_ssid", saved.STASSID,
		"ap_ssid", saved.APSSID,
		"sta_password_changed", update.STAPassword != "",
		"ap_password_changed", update.APPassword != "",
		"restart", restart,
	)

	if !restart {
		return time.Time{}
	}
	due := s.device.ScheduleRestart(RestartDelay)
	slog.Info("devicecontrol.restart.scheduled",
		"component", "devicecontrol",
		"event", "restart.scheduled",
		"due", due,
	)
	return due
}
