package database

import "time"

// Config holds the connection parameters NewBun needs to dial Postgres
// through pgdriver. Mirrors the shape the teacher's internal/config.Config
// embeds as database.Config, reconstructed here since this module's
// internal/config was replaced by internal/settings (see DESIGN.md).
type Config struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
