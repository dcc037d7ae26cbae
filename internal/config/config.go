package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the backoffice service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	DatabaseURL           string
	RedisURL              string
	NATSURL               string
	JWTSecret             string
	DefaultPerPage        int
	MaxPerPage            int
	SearchResultCap       int
	TaskQueueName         string
	CRMSubject            string
	AutocompleteRateLimit int
	AutoMigrate           bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BACKOFFICE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Backoffice API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("pagination.default_per_page", 20)
	v.SetDefault("pagination.max_per_page", 100)
	v.SetDefault("search.result_cap", 25)
	v.SetDefault("task_queue.name", "backoffice:tasks")
	v.SetDefault("crm.subject", "backoffice.crm.sync")
	v.SetDefault("rate_limit.autocomplete", 30)
	v.SetDefault("database.auto_migrate", true)

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		DatabaseURL:           v.GetString("database.url"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		JWTSecret:             v.GetString("jwt.secret"),
		DefaultPerPage:        v.GetInt("pagination.default_per_page"),
		MaxPerPage:            v.GetInt("pagination.max_per_page"),
		SearchResultCap:       v.GetInt("search.result_cap"),
		TaskQueueName:         v.GetString("task_queue.name"),
		CRMSubject:            v.GetString("crm.subject"),
		AutocompleteRateLimit: v.GetInt("rate_limit.autocomplete"),
		AutoMigrate:           v.GetBool("database.auto_migrate"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = 20
	}
	if cfg.MaxPerPage < cfg.DefaultPerPage {
		cfg.MaxPerPage = cfg.DefaultPerPage
	}
	if cfg.SearchResultCap <= 0 {
		cfg.SearchResultCap = 25
	}

	return cfg, nil
}
