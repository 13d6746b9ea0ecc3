package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"solana-wallet-watcher/internal/constants"
)

type Config struct {
	// Helius settings
	APIKeys []string
	WSURL   string
	APIURL  string
	RPCURL  string

	// Credential rotation
	RotateInterval      time.Duration
	RotateCallThreshold int

	// Enrichment rate limiting
	EnrichInterval time.Duration
	HTTPTimeout    time.Duration

	// Metadata cache
	MetadataTTL   time.Duration
	MetadataSweep time.Duration

	// Reconnect policy
	ReconnectBackoff    time.Duration
	ReconnectBackoffCap time.Duration
	ReconnectMaxRetries int

	// Redis settings
	RedisAddr string

	// ClickHouse settings (sink disabled when addr is empty)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Control-plane API
	APIAddr            string
	APIKey             string
	DevMode            bool
	APIReadTimeout     time.Duration
	APIWriteTimeout    time.Duration
	APIIdleTimeout     time.Duration
	APIShutdownTimeout time.Duration

	// Addresses watched at startup; more can be added over the API
	WatchAddresses []string
}

func Load() (*Config, error) {
	keys := splitKeys(os.Getenv("HELIUS_API_KEYS"))
	if single := os.Getenv("HELIUS_API_KEY"); single != "" {
		keys = append(keys, single)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("HELIUS_API_KEYS is required")
	}

	return &Config{
		APIKeys: keys,
		WSURL:   getEnv("HELIUS_WS_URL", "wss://mainnet.helius-rpc.com"),
		APIURL:  getEnv("HELIUS_API_URL", "https://api.helius.xyz"),
		RPCURL:  getEnv("HELIUS_RPC_URL", "https://mainnet.helius-rpc.com"),

		RotateInterval:      getDurationEnv("ROTATE_INTERVAL", constants.DefaultRotateInterval),
		RotateCallThreshold: getIntEnv("ROTATE_CALL_THRESHOLD", constants.DefaultRotateCallThreshold),

		EnrichInterval: getDurationEnv("ENRICH_INTERVAL", constants.DefaultEnrichInterval),
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT", 30*time.Second),

		MetadataTTL:   getDurationEnv("METADATA_TTL", constants.DefaultMetadataTTL),
		MetadataSweep: getDurationEnv("METADATA_SWEEP", constants.DefaultMetadataSweep),

		ReconnectBackoff:    getDurationEnv("RECONNECT_BACKOFF", constants.DefaultReconnectBackoff),
		ReconnectBackoffCap: getDurationEnv("RECONNECT_BACKOFF_CAP", constants.DefaultReconnectBackoffCap),
		ReconnectMaxRetries: getIntEnv("RECONNECT_MAX_RETRIES", constants.DefaultReconnectMaxRetries),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		APIAddr:            getEnv("API_ADDR", ":8090"),
		APIKey:             getEnv("API_KEY", ""),
		DevMode:            getBoolEnv("DEV_MODE", false),
		APIReadTimeout:     getDurationEnv("API_READ_TIMEOUT", 10*time.Second),
		APIWriteTimeout:    getDurationEnv("API_WRITE_TIMEOUT", 30*time.Second),
		APIIdleTimeout:     getDurationEnv("API_IDLE_TIMEOUT", time.Minute),
		APIShutdownTimeout: getDurationEnv("API_SHUTDOWN_TIMEOUT", 10*time.Second),

		WatchAddresses: splitKeys(os.Getenv("WATCH_ADDRESSES")),
	}, nil
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
