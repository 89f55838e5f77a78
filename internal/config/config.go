// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Presentation surfaces.
const (
	PresentationMCP = "mcp"
	PresentationLog = "log"
)

// Capture and presentation defaults.
const (
	DefaultMaxRecordsValue   = 1000
	DefaultMaxBodyBytesValue = 1 << 20
	DefaultTreeCacheItems    = 128
	DefaultTreeExpandDepth   = 1
	DefaultListLimitValue    = 50
	MaxListLimitValue        = 500
	MaxQueryResultsValue     = 1000
)

// Config holds all configuration for the inspector.
type Config struct {
	MaxRecords           int           // HTTPINSPECT_MAX_RECORDS, default 1000 (0 = unbounded)
	MaxBodyBytes         int           // HTTPINSPECT_MAX_BODY_BYTES, default 1 MiB
	TreeCacheMaxItems    int           // TREE_CACHE_MAX_ITEMS, default 128
	TreeExpandDepth      int           // TREE_EXPAND_DEPTH, default 1
	DefaultListLimit     int           // DEFAULT_LIST_LIMIT, default 50
	MaxQueryResults      int           // MAX_QUERY_RESULTS, default 1000
	Presentation         string        // PRESENTATION, "mcp" or "log", default "mcp"
	IndexRefreshInterval time.Duration // INDEX_REFRESH_INTERVAL_MS, default 2000ms

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		MaxRecords:           getEnvInt("HTTPINSPECT_MAX_RECORDS", DefaultMaxRecordsValue),
		MaxBodyBytes:         getEnvInt("HTTPINSPECT_MAX_BODY_BYTES", DefaultMaxBodyBytesValue),
		TreeCacheMaxItems:    getEnvInt("TREE_CACHE_MAX_ITEMS", DefaultTreeCacheItems),
		TreeExpandDepth:      getEnvInt("TREE_EXPAND_DEPTH", DefaultTreeExpandDepth),
		DefaultListLimit:     getEnvInt("DEFAULT_LIST_LIMIT", DefaultListLimitValue),
		MaxQueryResults:      getEnvInt("MAX_QUERY_RESULTS", MaxQueryResultsValue),
		Presentation:         getEnvChoice("PRESENTATION", PresentationMCP, PresentationMCP, PresentationLog),
		IndexRefreshInterval: getEnvDurationMs("INDEX_REFRESH_INTERVAL_MS", 2000),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvChoice("LOG_FORMAT", "text", "text", "json"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		MaxRecords:           DefaultMaxRecordsValue,
		MaxBodyBytes:         DefaultMaxBodyBytesValue,
		TreeCacheMaxItems:    DefaultTreeCacheItems,
		TreeExpandDepth:      DefaultTreeExpandDepth,
		DefaultListLimit:     DefaultListLimitValue,
		MaxQueryResults:      MaxQueryResultsValue,
		Presentation:         PresentationMCP,
		IndexRefreshInterval: 2000 * time.Millisecond,
		LogLevel:             "info",
		LogFormat:            "text",
		LogMaxSizeMB:         10,
		LogMaxBackups:        5,
		LogMaxAgeDays:        28,
		LogCompress:          true,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvChoice returns the lowercased value of key if it is one of allowed.
func getEnvChoice(key, defaultVal string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
