// ABOUTME: Tests for the Charm client helpers that need no network
// ABOUTME: Covers cache key prefixing, defaults and configuration validation
package charm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	key := CacheKey("abc123")
	assert.Equal(t, "cache:abc123", key)
	assert.True(t, strings.HasPrefix(key, CachePrefix))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "cloud.charm.sh", cfg.Host)
	assert.Equal(t, "biorag", cfg.DBName)
	assert.True(t, cfg.AutoSync)
}

func TestNewClient_RequiresDBName(t *testing.T) {
	_, err := NewClient(Config{Host: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database name is required")
}
