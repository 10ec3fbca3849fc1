package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/m0rjc/DeviceChannel/internal/config"
	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/db/commandaudit"
	"github.com/m0rjc/DeviceChannel/internal/logging"
)

func main() {
	// Initialize structured logging
	logging.InitLogger()

	// Load minimal configuration (only the database)
	cfg, err := config.LoadMinimal()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Parse command line flags; the flag overrides AUDIT_RETENTION_DAYS
	auditRetention := flag.Int("audit-retention", int(cfg.AuditRetention/(24*time.Hour)), "Days to retain command audit logs")
	flag.Parse()
	if *auditRetention <= 0 {
		slog.Error("audit retention must be positive", "audit_retention_days", *auditRetention)
		os.Exit(1)
	}

	slog.Info("starting database cleanup",
		"audit_retention_days", *auditRetention,
	)

	dbConn, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		slog.Error("failed to get underlying database connection", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	conns := db.NewConnections(dbConn, nil)

	slog.Info("cleaning up old command audit logs")
	deleted, err := commandaudit.DeleteExpired(conns, time.Duration(*auditRetention)*24*time.Hour)
	if err != nil {
		slog.Error("failed to delete old command audit logs", "error", err)
		sqlDB.Close()
		os.Exit(1)
	}

	slog.Info("database cleanup completed", "deleted", deleted)
}
