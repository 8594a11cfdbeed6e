// Package config binds the three binaries' environment-variable
// settings through viper, grounded on pramudityad/golang-reconciliation-
// service's cmd/reconciler/config and Veraticus-the-spice-must-flow's
// viper usage. It replaces the teacher's scattered os.Getenv calls
// (internal/worker/job.go, internal/db/db.go, cmd/api/main.go) with one
// bound struct, keeping the same variable names and defaults.
package config

import (
	"time"

	"github.com/spf13/viper"

	"reconcile-engine/internal/reconcile"
)

// Config is the process-wide configuration for cmd/api and cmd/worker.
type Config struct {
	DatabaseURL              string
	Port                     string
	UploadDir                string
	JobPollInterval          time.Duration
	BatchProgressUpdateEvery int

	DefaultSettings reconcile.Settings
}

// Load reads environment variables (and, if present, a config file named
// "reconcile" on the current path) into Config, applying the teacher's
// original defaults where a variable is unset.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetConfigName("reconcile")
	v.AddConfigPath(".")

	v.SetDefault("PORT", "8080")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("JOB_POLL_INTERVAL_MS", 1000)
	v.SetDefault("BATCH_PROGRESS_UPDATE_EVERY", 200)

	_ = v.ReadInConfig() // absent config file is not an error

	return Config{
		DatabaseURL:              v.GetString("DATABASE_URL"),
		Port:                     v.GetString("PORT"),
		UploadDir:                v.GetString("UPLOAD_DIR"),
		JobPollInterval:          time.Duration(v.GetInt("JOB_POLL_INTERVAL_MS")) * time.Millisecond,
		BatchProgressUpdateEvery: v.GetInt("BATCH_PROGRESS_UPDATE_EVERY"),
		DefaultSettings:          reconcile.DefaultSettings(),
	}
}
