package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "LUXOR"
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultDatabasePath   = "luxor.db"
	defaultLogLevel       = "info"
	defaultUnsplashAPIURL = "https://api.unsplash.com"
	defaultSearchPerPage  = 10
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	UnsplashAccessKey string
	UnsplashAPIURL    string
	SearchPerPage     int
	LogLevel          string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("unsplash.api_url", defaultUnsplashAPIURL)
	configViper.SetDefault("search.per_page", defaultSearchPerPage)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		UnsplashAccessKey: configViper.GetString("unsplash.access_key"),
		UnsplashAPIURL:    configViper.GetString("unsplash.api_url"),
		SearchPerPage:     configViper.GetInt("search.per_page"),
		LogLevel:          configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.UnsplashAccessKey) == "" {
		return fmt.Errorf("unsplash.access_key is required")
	}
	if strings.TrimSpace(c.UnsplashAPIURL) == "" {
		return fmt.Errorf("unsplash.api_url is required")
	}
	if c.SearchPerPage < 1 || c.SearchPerPage > 30 {
		return fmt.Errorf("search.per_page must be between 1 and 30")
	}
	return nil
}
