// Package server provides configuration helpers that define runtime defaults
// and validation for the roomrelay service.
package server

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds the server configuration settings.
//
// DefaultRoom, when set, is joined automatically by every connection at
// registration time, which turns the service into a single shared broadcast
// scope until a client explicitly joins another room.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	DefaultRoom    string
	RedisAddr      string
	RedisDB        int
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port:           ":8080",
		AllowedOrigins: []string{"*"},
		MaxMessageSize: 512,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 512
	}

	cfg.DefaultRoom = strings.TrimSpace(cfg.DefaultRoom)

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := Config{
		Port:           cfg.Port,
		AllowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		MaxMessageSize: cfg.MaxMessageSize,
		DefaultRoom:    cfg.DefaultRoom,
		RedisAddr:      cfg.RedisAddr,
		RedisDB:        cfg.RedisDB,
	}
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if room := os.Getenv("DEFAULT_ROOM"); room != "" {
		cfg.DefaultRoom = room
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		cfg.RedisDB = parseIntValue(db, cfg.RedisDB)
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
		return parsed
	}
	return defaultValue
}
