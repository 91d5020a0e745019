package docmerge

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.MaxConditionalPasses != 20 {
		t.Errorf("MaxConditionalPasses = %d, want 20", cfg.MaxConditionalPasses)
	}
	if cfg.RepeaterWarnLimit != 100 {
		t.Errorf("RepeaterWarnLimit = %d, want 100", cfg.RepeaterWarnLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("DOCMERGE_LOG_LEVEL", "debug")
	t.Setenv("DOCMERGE_MAX_CONDITIONAL_PASSES", "50")
	t.Setenv("DOCMERGE_REPEATER_WARN_LIMIT", "10")

	cfg := ConfigFromEnvironment()
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.MaxConditionalPasses != 50 {
		t.Errorf("MaxConditionalPasses = %d", cfg.MaxConditionalPasses)
	}
	if cfg.RepeaterWarnLimit != 10 {
		t.Errorf("RepeaterWarnLimit = %d", cfg.RepeaterWarnLimit)
	}
}

func TestConfigFromEnvironmentIgnoresGarbage(t *testing.T) {
	t.Setenv("DOCMERGE_MAX_CONDITIONAL_PASSES", "not-a-number")

	cfg := ConfigFromEnvironment()
	if cfg.MaxConditionalPasses != 20 {
		t.Errorf("MaxConditionalPasses = %d, want default", cfg.MaxConditionalPasses)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"off log level is valid", func(c *Config) { c.LogLevel = "off" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"zero passes", func(c *Config) { c.MaxConditionalPasses = 0 }, true},
		{"negative warn limit", func(c *Config) { c.RepeaterWarnLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGlobalConfigReturnsCopy(t *testing.T) {
	cfg := GetGlobalConfig()
	cfg.MaxConditionalPasses = 999

	again := GetGlobalConfig()
	if again.MaxConditionalPasses == 999 {
		t.Error("mutating the returned config must not affect the global")
	}
}
