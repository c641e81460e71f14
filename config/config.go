// Package config loads service configuration from the environment.
// main loads a .env file first (godotenv), so local dev and container
// deployments share the same knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/warp/hrchain/reconcile"
)

// Config is the full service configuration.
type Config struct {
	Port         int
	DatabasePath string
	Ledger       LedgerConfig
	Kafka        KafkaConfig
	Transitions  TransitionsConfig
}

// LedgerConfig configures the chain bridge and the mirroring policy.
type LedgerConfig struct {
	BridgeURL   string
	Mode        reconcile.Mode
	CallTimeout time.Duration
}

// KafkaConfig configures the lifecycle event publisher. Empty Brokers
// disables publishing.
type KafkaConfig struct {
	Brokers []string
}

// TransitionsConfig configures the status-transition table.
type TransitionsConfig struct {
	Path    string // optional YAML file; empty uses the built-in table
	Enforce bool
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	mode, err := reconcile.ParseMode(getEnvString("LEDGER_MODE", "required"))
	if err != nil {
		return nil, err
	}

	callTimeout, err := getEnvDuration("LEDGER_CALL_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:         getEnvInt("PORT", 8080),
		DatabasePath: getEnvString("DATABASE_PATH", "hrchain.db"),
		Ledger: LedgerConfig{
			BridgeURL:   getEnvString("LEDGER_BRIDGE_URL", "http://localhost:8545"),
			Mode:        mode,
			CallTimeout: callTimeout,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnvString("KAFKA_BROKERS", "")),
		},
		Transitions: TransitionsConfig{
			Path:    getEnvString("TRANSITIONS_FILE", ""),
			Enforce: getEnvBool("TRANSITIONS_ENFORCE", false),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
