package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"disabled skips validation", Config{Enabled: false, Strategy: "bogus"}, false},
		{"simple strategy", Config{Enabled: true, Strategy: StrategySimple}, false},
		{"lru with size", Config{Enabled: true, Strategy: StrategyLRU, MaxSize: 10}, false},
		{"lru without size", Config{Enabled: true, Strategy: StrategyLRU, MaxSize: 0}, true},
		{"lru negative size", Config{Enabled: true, Strategy: StrategyLRU, MaxSize: -5}, true},
		{"unknown strategy", Config{Enabled: true, Strategy: "ttl"}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.config.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Run("disabled yields noop", func(t *testing.T) {
		c, err := NewFromConfig[int](Config{Enabled: false})
		require.NoError(t, err)

		_, _ = c.Set("k", 1)
		_, found := c.Get("k")
		assert.False(t, found, "noop cache never stores")
	})

	t.Run("lru", func(t *testing.T) {
		c, err := NewFromConfig[int](Config{Enabled: true, Strategy: StrategyLRU, MaxSize: 2})
		require.NoError(t, err)
		defer c.Close()

		_, _ = c.Set("a", 1)
		_, _ = c.Set("b", 2)
		_, _ = c.Set("c", 3)
		assert.Equal(t, 2, c.Size())
	})

	t.Run("simple", func(t *testing.T) {
		c, err := NewFromConfig[int](Config{Enabled: true, Strategy: StrategySimple})
		require.NoError(t, err)
		defer c.Close()

		for i := 0; i < 100; i++ {
			_, _ = c.Set(string(rune('a'+i%26))+string(rune('0'+i/26)), i)
		}
		assert.Greater(t, c.Size(), 26)
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		_, err := NewFromConfig[int](Config{Enabled: true, Strategy: "hybrid"})
		assert.Error(t, err)
	})
}
