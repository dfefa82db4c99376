package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration for the studio service.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	SessionTTL         time.Duration
	Timezone           *time.Location
	SeriesHorizonWeeks int
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// provided values and reporting localized error messages for bad entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:studio.db",
		SessionTTL:         24 * time.Hour,
		Timezone:           time.UTC,
		SeriesHorizonWeeks: 12,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("STUDIO_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "STUDIO_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("STUDIO_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("STUDIO_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "STUDIO_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tzValue := strings.TrimSpace(os.Getenv("STUDIO_TIMEZONE")); tzValue != "" {
		loc, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "STUDIO_TIMEZONE")
		} else {
			cfg.Timezone = loc
		}
	}

	if horizonValue := strings.TrimSpace(os.Getenv("STUDIO_SERIES_HORIZON_WEEKS")); horizonValue != "" {
		weeks, err := strconv.Atoi(horizonValue)
		if err != nil || weeks <= 0 {
			invalid = append(invalid, "STUDIO_SERIES_HORIZON_WEEKS")
		} else {
			cfg.SeriesHorizonWeeks = weeks
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
