package db

import (
	"time"

	"gorm.io/gorm"
)

// CommandAuditLog records a command received from a channel client.
type CommandAuditLog struct {
	ID uint `gorm:"primaryKey"`

	// ConnectionID identifies the WebSocket connection the command arrived on.
	ConnectionID string `gorm:"column:connection_id;type:varchar(36);not null;index"`

	// RemoteAddr is the client address as seen by the simulator.
	RemoteAddr string `gorm:"column:remote_addr;type:varchar(255);not null"`

	// LED and Blink hold the command fields. Nil means the field was absent
	// or not a boolean, so the device left that part of its state alone.
	LED   *bool `gorm:"column:led"`
	Blink *bool `gorm:"column:blink"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
}

func (CommandAuditLog) TableName() string {
	return "command_audit_logs"
}

// AutoMigrate creates or updates the tables used by the simulator.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&CommandAuditLog{})
}
