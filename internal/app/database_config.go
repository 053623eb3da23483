package app

import (
	"strings"

	"github.com/agoralabs/agora/internal/database"
)

// StoreConfig converts DatabaseConfig into the parameters the database
// package expects, honouring the enabled host-based driver blocks.
func (c DatabaseConfig) StoreConfig() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))

	cfg := database.Config{
		Driver: driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch driver {
	case "postgres":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
		cfg.Name = c.Postgres.Database
	case "mysql":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
		cfg.Name = c.MySQL.Database
	}

	return cfg
}
