// Package config provides environment-backed configuration for the
// harvest CLI. Credentials never appear on the command line; they come
// from ARTHUB_* variables.
package config

import (
	"os"
	"strconv"
)

// EnvConfig holds the environment overrides for a harvest run.
type EnvConfig struct {
	// OAI endpoint credentials
	Username string
	Password string

	// Lookup-table source credentials
	PidUsername string
	PidPassword string

	// Harvest limits
	MaxRequests int
	RateLimit   int

	Verbose bool
}

// LoadEnv loads configuration from environment.
func LoadEnv() *EnvConfig {
	return &EnvConfig{
		Username:    getEnv("ARTHUB_USERNAME", ""),
		Password:    getEnv("ARTHUB_PASSWORD", ""),
		PidUsername: getEnv("ARTHUB_PID_USERNAME", ""),
		PidPassword: getEnv("ARTHUB_PID_PASSWORD", ""),
		MaxRequests: getEnvInt("ARTHUB_MAX_REQUESTS", 0),
		RateLimit:   getEnvInt("ARTHUB_RATE_LIMIT", 0),
		Verbose:     getEnvBool("ARTHUB_VERBOSE", false),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
