package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config maps the entire application configuration. Values come from
// configs/config.yaml with environment variable overrides (dots become
// underscores, e.g. server.port -> SERVER_PORT).
type Config struct {
	// Server configuration for the HTTP API
	Server struct {
		Port         int    `mapstructure:"port"`
		BaseURL      string `mapstructure:"base_url"`
		DownloadsDir string `mapstructure:"downloads_dir"` // Where lead magnet PDFs live
	} `mapstructure:"server"`

	// Database configuration for the SQLite event store
	Database struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"database"`

	// Redis configuration for the visitor attribution stores. An empty addr
	// falls back to the in-process store (single instance only).
	Redis struct {
		Addr              string `mapstructure:"addr"`
		Password          string `mapstructure:"password"`
		DB                int    `mapstructure:"db"`
		SessionTTLMinutes int    `mapstructure:"session_ttl_minutes"`
	} `mapstructure:"redis"`

	// Analytics configuration for asynchronous event dispatch
	Analytics struct {
		BufferSize  int  `mapstructure:"buffer_size"`
		WorkerCount int  `mapstructure:"worker_count"`
		Debug       bool `mapstructure:"debug"` // Per-event diagnostic logging; keep off in production
	} `mapstructure:"analytics"`

	// Sinks configures the optional third-party analytics integrations.
	// Each sink with incomplete settings is simply not registered.
	Sinks struct {
		GA struct {
			MeasurementID string `mapstructure:"measurement_id"`
			APISecret     string `mapstructure:"api_secret"`
			Endpoint      string `mapstructure:"endpoint"`
		} `mapstructure:"ga"`
		Pixel struct {
			PixelID     string `mapstructure:"pixel_id"`
			AccessToken string `mapstructure:"access_token"`
			Endpoint    string `mapstructure:"endpoint"`
		} `mapstructure:"pixel"`
		Webhook struct {
			URL string `mapstructure:"url"`
		} `mapstructure:"webhook"`
		AMQP struct {
			URL      string `mapstructure:"url"`
			Exchange string `mapstructure:"exchange"`
		} `mapstructure:"amqp"`
	} `mapstructure:"sinks"`

	// CRM configures the lead forwarding webhook. WebhookURL empty means
	// forwarding is skipped and capture still succeeds.
	CRM struct {
		WebhookURL string `mapstructure:"webhook_url"`
		APIKey     string `mapstructure:"api_key"`
	} `mapstructure:"crm"`

	// Monitor configures the partner endpoint health checker
	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"`
	} `mapstructure:"monitor"`
}

// LoadConfig loads the application configuration using viper. A local .env
// file is read first so deployment secrets can live next to the binary in
// development; real environments set the variables directly.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("server.downloads_dir", "./downloads")
	viper.SetDefault("database.name", "leadengine.db")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.session_ttl_minutes", 30)
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("analytics.debug", false)
	viper.SetDefault("monitor.interval_minutes", 5)

	// The CRM credentials keep their historical environment names
	_ = viper.BindEnv("crm.webhook_url", "GOHIGHLEVEL_WEBHOOK_URL")
	_ = viper.BindEnv("crm.api_key", "GOHIGHLEVEL_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env cover everything
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
