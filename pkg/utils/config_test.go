package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with nil values", func(t *testing.T) {
		config := NewConfig(nil)
		require.NotNil(t, config)
		assert.Len(t, config.ToMap(), 0)
	})

	t.Run("with values", func(t *testing.T) {
		values := map[string]string{
			"key1": "value1",
			"key2": "value2",
		}
		config := NewConfig(values)

		assert.Equal(t, "value1", config.Get("key1"))
		assert.Equal(t, "value2", config.Get("key2"))

		// Verify it's a copy, not a reference
		values["key1"] = "modified"
		assert.NotEqual(t, "modified", config.Get("key1"))
	})
}

func TestGetWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"present": "value",
		"empty":   "",
	})

	tests := []struct {
		name     string
		key      string
		fallback string
		expected string
	}{
		{name: "present key", key: "present", fallback: "default", expected: "value"},
		{name: "missing key", key: "missing", fallback: "default", expected: "default"},
		{name: "empty value falls back", key: "empty", fallback: "default", expected: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, config.GetWithDefault(tt.key, tt.fallback))
		})
	}
}

func TestGetInt(t *testing.T) {
	config := NewConfig(map[string]string{
		"number":  "42",
		"invalid": "not-a-number",
	})

	assert.Equal(t, 42, config.GetInt("number"))
	assert.Equal(t, 0, config.GetInt("invalid"))
	assert.Equal(t, 0, config.GetInt("missing"))

	assert.Equal(t, 42, config.GetIntWithDefault("number", 7))
	assert.Equal(t, 7, config.GetIntWithDefault("missing", 7))
}

func TestSetAndHas(t *testing.T) {
	config := NewConfig(nil)

	assert.False(t, config.Has("key"))

	config.Set("key", "value")
	assert.True(t, config.Has("key"))
	assert.Equal(t, "value", config.Get("key"))
}

func TestConfigConcurrentAccess(t *testing.T) {
	config := NewConfig(map[string]string{"shared": "initial"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			config.Set("shared", "updated")
		}()
		go func() {
			defer wg.Done()
			_ = config.Get("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, "updated", config.Get("shared"))
}
