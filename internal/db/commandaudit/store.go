package commandaudit

import (
	"time"

	"github.com/m0rjc/DeviceChannel/internal/db"
)

// Create creates a new command audit log entry
func Create(conns *db.Connections, log *db.CommandAuditLog) error {
	return conns.DB.Create(log).Error
}

// ListRecent returns up to limit entries, newest first
func ListRecent(conns *db.Connections, limit int) ([]db.CommandAuditLog, error) {
	var logs []db.CommandAuditLog
	err := conns.DB.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// DeleteExpired deletes audit log entries older than the retention period
func DeleteExpired(conns *db.Connections, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := conns.DB.Where("created_at < ?", cutoff).Delete(&db.CommandAuditLog{})
	return result.RowsAffected, result.Error
}
