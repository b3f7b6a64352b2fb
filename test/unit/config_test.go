package unit

import (
	"testing"

	"roomrelay/internal/server"
)

// TestNewConfigDefaults verifies the configuration defaults.
func TestNewConfigDefaults(t *testing.T) {
	cfg := server.NewConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.MaxMessageSize != 512 {
		t.Errorf("MaxMessageSize = %d, want 512", cfg.MaxMessageSize)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.DefaultRoom != "" {
		t.Errorf("DefaultRoom = %q, want empty", cfg.DefaultRoom)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

// TestNewConfigFromEnv verifies that environment variables override the
// defaults and that unparsable values fall back.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("DEFAULT_ROOM", "global")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := server.NewConfigFromEnv()

	if cfg.Port != ":9999" {
		t.Errorf("Port = %q, want :9999", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://a.example" || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v, want trimmed pair", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 2048 {
		t.Errorf("MaxMessageSize = %d, want 2048", cfg.MaxMessageSize)
	}
	if cfg.DefaultRoom != "global" {
		t.Errorf("DefaultRoom = %q, want global", cfg.DefaultRoom)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want fallback 0", cfg.RedisDB)
	}
}

// TestSetConfigAcceptsInvalidValues verifies that applying a configuration
// with out-of-range settings does not panic and can be reset to defaults.
func TestSetConfigAcceptsInvalidValues(t *testing.T) {
	t.Cleanup(func() { server.SetConfig(nil) })

	server.SetConfig(&server.Config{
		Port:           "",
		MaxMessageSize: -1,
		AllowedOrigins: []string{"", "not a url", "*"},
		DefaultRoom:    "   ",
	})
	server.SetConfig(nil)
}
