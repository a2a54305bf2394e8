package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// PHASE_SERVER_PORT overrides server.port.
const EnvPrefix = "PHASE"

// Config is the complete application configuration.
type Config struct {
	// Server holds the HTTP listener and upload settings (keys "server.*").
	Server ServerConfig

	// Log holds the logger settings (keys "log.*").
	Log LogConfig
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Host is the interface to listen on.
	Host string

	// Port is the TCP port to listen on.
	Port int

	// ReadTimeout bounds reading a whole request, upload included.
	ReadTimeout time.Duration

	// WriteTimeout bounds processing plus writing the response.
	WriteTimeout time.Duration

	// ShutdownTimeout is how long in-flight requests get on shutdown.
	ShutdownTimeout time.Duration

	// MaxUploadBytes is the largest accepted image file, in bytes.
	MaxUploadBytes int64

	// MaxPixels is the largest accepted width*height. It is checked against
	// the image header before any pixel data is decoded, so it bounds the
	// memory a request can use regardless of how well the file compresses.
	MaxPixels int
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string

	// Format is "json" for production output or "console" for humans.
	Format string
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7860)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 20<<20) // 20MB
	v.SetDefault("server.max_pixels", 4096*4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and builds a validated Config.
// Flags bound to v before calling Load take precedence over the file and
// the environment.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxUploadBytes:  v.GetInt64("server.max_upload_bytes"),
			MaxPixels:       v.GetInt("server.max_pixels"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.MaxPixels <= 0 {
		return fmt.Errorf("server.max_pixels must be positive, got %d", c.Server.MaxPixels)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
