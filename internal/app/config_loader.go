package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// legacyEnv maps the plain environment variable names used by existing
// installations onto config keys
var legacyEnv = map[string]string{
	"database.host":       "MYSQL_HOST",
	"database.user":       "MYSQL_USER",
	"database.password":   "MYSQL_PASS",
	"database.name":       "MYSQL_DB",
	"download.output_dir": "DOWNLOAD_DIR",
}

// LoadConfig loads configuration from .env, an optional yaml file and the
// environment, on top of the defaults
func LoadConfig(configPath string) (*domain.Config, error) {
	// A missing .env file is the normal case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.ytdl-desk")
	}

	v.SetEnvPrefix("YTDLDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "YTDLDESK_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configValues flattens config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host": config.Server.Host,
		"server.port": config.Server.Port,

		"download.output_dir":    config.Download.OutputDir,
		"download.poll_interval": config.Download.PollInterval.String(),
		"download.chunk_size":    config.Download.ChunkSize,
		"download.history_limit": config.Download.HistoryLimit,

		"database.driver":      config.Database.Driver,
		"database.host":        config.Database.Host,
		"database.port":        config.Database.Port,
		"database.user":        config.Database.User,
		"database.password":    config.Database.Password,
		"database.name":        config.Database.Name,
		"database.sqlite_path": config.Database.SQLitePath,

		"mirror.enabled":        config.Mirror.Enabled,
		"mirror.collection_url": config.Mirror.CollectionURL,
		"mirror.timeout":        config.Mirror.Timeout.String(),

		"provider.http_timeout": config.Provider.HTTPTimeout.String(),

		"notification.enabled": config.Notification.Enabled,
		"notification.method":  config.Notification.Method,

		"logging.level":       config.Logging.Level,
		"logging.format":      config.Logging.Format,
		"logging.output_path": config.Logging.OutputPath,
		"logging.logs_dir":    config.Logging.LogsDir,
	}
}

// setDefaults registers every default so AutomaticEnv can override keys
// that do not appear in a config file
func setDefaults(v *viper.Viper, config *domain.Config) {
	for key, value := range configValues(config) {
		v.SetDefault(key, value)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Database.SQLitePath = expandPath(config.Database.SQLitePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands $VARS and a leading ~ in a path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if config.Download.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive")
	}

	if config.Download.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be at least 1")
	}

	switch config.Database.Driver {
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path not configured")
		}
	case "mysql":
		if config.Database.Host == "" || config.Database.Name == "" {
			return fmt.Errorf("mysql host and database name are required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Mirror.Enabled && config.Mirror.CollectionURL == "" {
		return fmt.Errorf("mirror enabled but collection url not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
