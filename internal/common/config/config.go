// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main pipeline configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Models   ModelsConfig   `mapstructure:"models"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SnapshotConfig describes where the population snapshot comes from.
// The pipeline pulls a CSV export of a Google Sheet, or reads a local
// file when Path is set (Path wins over SheetID for offline runs).
type SnapshotConfig struct {
	SheetID string        `mapstructure:"sheet_id"`
	GID     string        `mapstructure:"gid"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExportURL returns the CSV export endpoint for the configured sheet.
func (s SnapshotConfig) ExportURL() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", s.SheetID, s.GID)
}

// ModelsConfig points at the two trained model bundles.
type ModelsConfig struct {
	ChurnPath  string `mapstructure:"churn_path"`
	TenurePath string `mapstructure:"tenure_path"`
}

// RiskConfig carries the two classification thresholds on the 0-1
// probability scale. Invariant: 0 <= Medium <= High <= 1.
type RiskConfig struct {
	HighThreshold   float64 `mapstructure:"high_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold"`
}

// OutputConfig controls where dated result artifacts are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AlertingConfig holds settings for the notification sink.
type AlertingConfig struct {
	Provider string        `mapstructure:"provider"` // "smtp" or "ses"
	From     string        `mapstructure:"from"`
	To       string        `mapstructure:"to"`
	Cooldown time.Duration `mapstructure:"cooldown"` // repeat-alert suppression window

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`

	SES struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"ses"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
