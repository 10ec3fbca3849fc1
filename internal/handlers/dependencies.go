package handlers

import (
	"github.com/m0rjc/DeviceChannel/internal/config"
	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/services/devicecontrol"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
)

type Dependencies struct {
	Config  *config.SimulatorConfig
	Conns   *db.Connections
	Hub     *websocket.Hub
	Control *devicecontrol.Service
}
