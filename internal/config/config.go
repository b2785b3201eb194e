package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every externally injected setting. The base API URL is the
// only value the storefront strictly needs; everything else has a local
// default.
type Config struct {
	Addr       string `envconfig:"APP_ADDR" default:":8081"`
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:5225/api"`
	TokenDB    string `envconfig:"TOKEN_DB" default:"samsonix.db"`
	MediaDir   string `envconfig:"MEDIA_DIR" default:"./web/media"`
	LogFile    string `envconfig:"LOG_FILE" default:"./samsonix.log"`

	// Contact form delivery; leaving the key empty disables sending.
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	ContactFrom  string `envconfig:"CONTACT_FROM" default:"storefront@samsonix.test"`
	ContactTo    string `envconfig:"CONTACT_TO" default:"sales@samsonix.test"`
}

func Load() (Config, error) {
	// Best effort; a missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	log.Printf("[config] APP_ADDR=%s API_BASE_URL=%s TOKEN_DB=%s LOG_FILE=%s", cfg.Addr, cfg.APIBaseURL, cfg.TokenDB, cfg.LogFile)
	return cfg, nil
}
