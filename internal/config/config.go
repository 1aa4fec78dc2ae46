package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Frame sources.
const (
	SourceTCP  = "tcp"
	SourceNATS = "nats"
)

// Config holds all application configuration.
type Config struct {
	Bridge   BridgeConfig
	NATS     NATSConfig
	State    StateConfig
	Source   string
	LogLevel string
}

// BridgeConfig holds the TCP radio bridge connection settings.
type BridgeConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// NATSConfig holds the message bus settings. An empty URL disables NATS.
type NATSConfig struct {
	URL          string
	FrameSubject string
	StateSubject string
}

// StateConfig holds state cache settings.
type StateConfig struct {
	StaleThreshold time.Duration
}

// Load reads configuration from an optional .env file and environment
// variables, falling back to defaults.
func Load() Config {
	// A missing .env file is fine.
	_ = godotenv.Load()

	return Config{
		Bridge: BridgeConfig{
			Host:    getEnvString("BRIDGE_HOST", "127.0.0.1"),
			Port:    getEnvInt("BRIDGE_PORT", 7878),
			Timeout: getEnvDuration("BRIDGE_TIMEOUT", 10*time.Second),
		},
		NATS: NATSConfig{
			URL:          getEnvString("NATS_URL", ""),
			FrameSubject: getEnvString("NATS_FRAME_SUBJECT", "locator.frames"),
			StateSubject: getEnvString("NATS_STATE_SUBJECT", "locator.state"),
		},
		State: StateConfig{
			StaleThreshold: getEnvDuration("STALE_THRESHOLD", 5*time.Second),
		},
		Source:   getEnvString("FRAME_SOURCE", SourceTCP),
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
