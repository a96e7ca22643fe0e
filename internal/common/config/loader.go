// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like CHURNWATCH_RISK_HIGH_THRESHOLD
	v.SetEnvPrefix("CHURNWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("CHURNWATCH_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or parents so the
// loader behaves the same from cmd/, tests, and the repo root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "churnwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("snapshot.timeout", 30*time.Second)

	v.SetDefault("models.churn_path", "models/churn_model.json")
	v.SetDefault("models.tenure_path", "models/tenure_model.json")

	// Matches THRESHOLD_HIGH / THRESHOLD_MEDIUM defaults from the
	// original deployment.
	v.SetDefault("risk.high_threshold", 0.70)
	v.SetDefault("risk.medium_threshold", 0.30)

	v.SetDefault("output.dir", "data")

	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_connections", 10)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.redis.address", "localhost:6379")

	v.SetDefault("alerting.provider", "smtp")
	v.SetDefault("alerting.smtp.port", 587)
	v.SetDefault("alerting.cooldown", 0*time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validateConfig(cfg *Config) error {
	r := cfg.Risk
	if r.HighThreshold < 0 || r.HighThreshold > 1 {
		return stderrors.NewConfigInvalidError(fmt.Sprintf("risk.high_threshold %.3f outside [0,1]", r.HighThreshold))
	}
	if r.MediumThreshold < 0 || r.MediumThreshold > 1 {
		return stderrors.NewConfigInvalidError(fmt.Sprintf("risk.medium_threshold %.3f outside [0,1]", r.MediumThreshold))
	}
	if r.MediumThreshold > r.HighThreshold {
		return stderrors.NewConfigInvalidError(fmt.Sprintf("risk.medium_threshold %.3f exceeds risk.high_threshold %.3f", r.MediumThreshold, r.HighThreshold))
	}

	if cfg.Models.ChurnPath == "" || cfg.Models.TenurePath == "" {
		return stderrors.NewConfigInvalidError("model artifact paths must be set")
	}

	if cfg.Snapshot.Path == "" && cfg.Snapshot.SheetID == "" {
		return stderrors.NewConfigInvalidError("snapshot.path or snapshot.sheet_id must be set")
	}

	if cfg.Output.Dir == "" {
		return stderrors.NewConfigInvalidError("output.dir must be set")
	}

	switch cfg.Alerting.Provider {
	case "smtp", "ses", "none":
	default:
		return stderrors.NewConfigInvalidError(fmt.Sprintf("unknown alerting.provider %q", cfg.Alerting.Provider))
	}

	return nil
}
