package config

import (
	"fmt"
)

// GetDatabaseURL returns a URL form of the database config for logging
// and diagnostics.
func GetDatabaseURL() string {
	cfg := Get().Database

	switch cfg.Type {
	case "postgres":
		return buildPostgresURL(cfg)
	default:
		return "sqlite://" + cfg.Path
	}
}

func buildPostgresURL(cfg DatabaseConfig) string {
	url := "postgres://"
	if cfg.Username != "" {
		url += cfg.Username + "@"
	}
	url += cfg.Host
	if cfg.Port != 5432 {
		url += fmt.Sprintf(":%d", cfg.Port)
	}
	return url + "/" + cfg.Database
}
