package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                  = "HURVEST"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultDatabasePath        = "hurvest.db"
	defaultLogLevel            = "info"
	defaultSyncIntervalMinutes = 15
)

// AppConfig captures runtime configuration for both roles of the
// binary: the central store server and the replica sync client.
type AppConfig struct {
	HTTPAddress       string
	AuthSigningSecret string
	AuthSyncKey       string
	DatabasePath      string
	RemoteBaseURL     string
	RemoteSyncKey     string
	SyncInterval      time.Duration
	DeviceID          string
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
	configViper.SetDefault("sync.interval_minutes", defaultSyncIntervalMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		AuthSigningSecret: configViper.GetString("auth.signing_secret"),
		AuthSyncKey:       configViper.GetString("auth.sync_key"),
		DatabasePath:      configViper.GetString("database.path"),
		RemoteBaseURL:     configViper.GetString("remote.base_url"),
		RemoteSyncKey:     configViper.GetString("remote.sync_key"),
		SyncInterval:      time.Duration(configViper.GetInt("sync.interval_minutes")) * time.Minute,
		DeviceID:          configViper.GetString("device.id"),
		LogLevel:          configViper.GetString("log.level"),
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return AppConfig{}, fmt.Errorf("database.path is required")
	}

	return cfg, nil
}

// ValidateServer checks the fields the serve role depends on.
func (c AppConfig) ValidateServer() error {
	if strings.TrimSpace(c.AuthSigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.AuthSyncKey) == "" {
		return fmt.Errorf("auth.sync_key is required")
	}
	return nil
}

// ValidateReplica checks the fields the sync role depends on.
func (c AppConfig) ValidateReplica() error {
	if strings.TrimSpace(c.RemoteBaseURL) == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if strings.TrimSpace(c.RemoteSyncKey) == "" {
		return fmt.Errorf("remote.sync_key is required")
	}
	return nil
}
