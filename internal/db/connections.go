package db

import (
	"context"

	"gorm.io/gorm"
)

// Connections holds database and cache connections
type Connections struct {
	DB    *gorm.DB
	Redis *RedisClient
}

// NewConnections creates a new Connections instance
func NewConnections(db *gorm.DB, redis *RedisClient) *Connections {
	return &Connections{
		DB:    db,
		Redis: redis,
	}
}

// WithContext returns a copy whose database handle is bound to ctx
func (c *Connections) WithContext(ctx context.Context) *Connections {
	if c.DB == nil {
		return c
	}
	return &Connections{
		DB:    c.DB.WithContext(ctx),
		Redis: c.Redis,
	}
}
