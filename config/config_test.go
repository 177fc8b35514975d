package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_SignInLockout(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.SignInMaxAttempts)
		assert.Equal(t, 15, cfg.SignInAttemptWindowMinutes)
		assert.Equal(t, 15, cfg.SignInBlockMinutes)
	})

	t.Run("window and block are independent", func(t *testing.T) {
		t.Setenv("SIGNIN_ATTEMPT_WINDOW_MINUTES", "5")
		t.Setenv("SIGNIN_BLOCK_MINUTES", "60")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.SignInAttemptWindowMinutes)
		assert.Equal(t, 60, cfg.SignInBlockMinutes)
	})
}

func TestLoadConfig_UnknownStoreFallsBackToMemory(t *testing.T) {
	t.Setenv("COMPLETION_STORE", "Cassandra")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.CompletionStore)
}
