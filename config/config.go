package config

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	BaseURL      string
	Env          string
	HTTPTimeout  time.Duration
	PollInterval time.Duration
	SessionFile  string
}

// New sets up all config related services
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("FLEET")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_TIMEOUT", 15*time.Second)
	v.SetDefault("POLL_INTERVAL", time.Second)
	v.SetDefault("SESSION_FILE", ".fleet-session.json")

	//setup zap logger and replace default logger
	logger, err := setLogger(v.GetString("ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		BaseURL:      v.GetString("BASE_URL"),
		Env:          v.GetString("ENV"),
		HTTPTimeout:  v.GetDuration("HTTP_TIMEOUT"),
		PollInterval: v.GetDuration("POLL_INTERVAL"),
		SessionFile:  v.GetString("SESSION_FILE"),
	}
}
