package docmerge

import (
	"errors"
	"os"
	"strconv"
	"sync"
)

// Config contains the tunable limits of the merge engine.
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// MaxConditionalPasses caps inline conditional resolution passes over one
	// text blob. Exceeding it is a fatal IterationLimitError.
	MaxConditionalPasses int
	// RepeaterWarnLimit is the list length above which a repeater emits a
	// non-fatal oversized-section warning.
	RepeaterWarnLimit int
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:             "info",
		MaxConditionalPasses: 20,
		RepeaterWarnLimit:    100,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("DOCMERGE_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("DOCMERGE_MAX_CONDITIONAL_PASSES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.MaxConditionalPasses = n
		}
	}

	if val := os.Getenv("DOCMERGE_REPEATER_WARN_LIMIT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.RepeaterWarnLimit = n
		}
	}

	return config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxConditionalPasses <= 0 {
		return errors.New("max conditional passes must be positive")
	}

	if c.RepeaterWarnLimit <= 0 {
		return errors.New("repeater warn limit must be positive")
	}

	return nil
}

// GetGlobalConfig returns a copy of the global configuration.
func GetGlobalConfig() *Config {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration.
func SetGlobalConfig(config *Config) {
	configOnce.Do(func() {})

	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	UpdateLoggerFromConfig()
}
