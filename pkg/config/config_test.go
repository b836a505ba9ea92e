package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "lostfound-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.UseTransactions)
	assert.Equal(t, ArchiveIDRegenerate, cfg.ArchiveIDStrategy)
	assert.False(t, cfg.PreserveArchiveIDs())
	assert.Equal(t, 5*time.Second, cfg.ResubscribeBackoff)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "lostfound-test")
	t.Setenv("STORE_TRANSACTIONS", "false")
	t.Setenv("ARCHIVE_ID_STRATEGY", "Preserve")
	t.Setenv("RESUBSCRIBE_BACKOFF", "250ms")
	t.Setenv("DASHBOARD_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.UseTransactions)
	assert.True(t, cfg.PreserveArchiveIDs())
	assert.Equal(t, 250*time.Millisecond, cfg.ResubscribeBackoff)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "lostfound-test")

	t.Run("archive strategy", func(t *testing.T) {
		t.Setenv("ARCHIVE_ID_STRATEGY", "random")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("timezone", func(t *testing.T) {
		t.Setenv("DASHBOARD_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("missing project", func(t *testing.T) {
		t.Setenv("FIREBASE_PROJECT_ID", "")
		_, err := Load()
		assert.Error(t, err)
	})
}
