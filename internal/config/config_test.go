package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTPINSPECT_MAX_RECORDS", "HTTPINSPECT_MAX_BODY_BYTES", "TREE_CACHE_MAX_ITEMS",
		"TREE_EXPAND_DEPTH", "DEFAULT_LIST_LIMIT", "MAX_QUERY_RESULTS", "PRESENTATION",
		"INDEX_REFRESH_INTERVAL_MS", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}

	assert.Equal(t, Default(), Load())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTPINSPECT_MAX_RECORDS", "10")
	t.Setenv("HTTPINSPECT_MAX_BODY_BYTES", "2048")
	t.Setenv("PRESENTATION", "LOG")
	t.Setenv("INDEX_REFRESH_INTERVAL_MS", "250")
	t.Setenv("LOG_COMPRESS", "off")

	cfg := Load()
	assert.Equal(t, 10, cfg.MaxRecords)
	assert.Equal(t, 2048, cfg.MaxBodyBytes)
	assert.Equal(t, PresentationLog, cfg.Presentation)
	assert.Equal(t, 250*time.Millisecond, cfg.IndexRefreshInterval)
	assert.False(t, cfg.LogCompress)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("HTTPINSPECT_MAX_RECORDS", "lots")
	t.Setenv("PRESENTATION", "window")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("LOG_COMPRESS", "maybe")

	cfg := Load()
	assert.Equal(t, DefaultMaxRecordsValue, cfg.MaxRecords)
	assert.Equal(t, PresentationMCP, cfg.Presentation)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.LogCompress)
}
