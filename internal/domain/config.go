package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Mirror       MirrorConfig       `mapstructure:"mirror"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir    string        `mapstructure:"output_dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ChunkSize    int           `mapstructure:"chunk_size"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

// DatabaseConfig contains relational store configuration
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"` // sqlite, mysql
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// MirrorConfig contains document store mirror configuration
type MirrorConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CollectionURL string        `mapstructure:"collection_url"` // mem://, firestore://
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ProviderConfig contains stream-extraction provider configuration
type ProviderConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8765,
		},
		Download: DownloadConfig{
			OutputDir:    "$HOME/Downloads",
			PollInterval: 500 * time.Millisecond,
			ChunkSize:    64 * 1024,
			HistoryLimit: 200,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			Host:       "localhost",
			Port:       3306,
			User:       "root",
			Password:   "",
			Name:       "youtube_downloader",
			SQLitePath: "$HOME/.ytdl-desk/history.db",
		},
		Mirror: MirrorConfig{
			Enabled:       true,
			CollectionURL: "mem://downloads/doc_id",
			Timeout:       10 * time.Second,
		},
		Provider: ProviderConfig{
			HTTPTimeout: 60 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.ytdl-desk/logs",
		},
	}
}
