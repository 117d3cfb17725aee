package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_PoolSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		assert.Equal(t, 25, cfg.DBMaxOpenConns)
		assert.Equal(t, 5, cfg.DBMaxIdleConns)
		assert.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
		assert.Zero(t, cfg.RedisPoolSize)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DB_MAX_OPEN_CONNS", "40")
		t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
		t.Setenv("DB_CONN_MAX_LIFETIME", "5m")
		t.Setenv("REDIS_POOL_SIZE", "16")

		cfg := Load()
		assert.Equal(t, 40, cfg.DBMaxOpenConns)
		assert.Equal(t, 5, cfg.DBMaxIdleConns)
		assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
		assert.Equal(t, 16, cfg.RedisPoolSize)
	})
}

func TestReceiptReadPolicy(t *testing.T) {
	raw, err := receiptReadPolicy("travel-receipts")
	require.NoError(t, err)

	var policy bucketPolicy
	require.NoError(t, json.Unmarshal([]byte(raw), &policy))
	require.Len(t, policy.Statement, 1)
	assert.Equal(t, []string{"s3:GetObject"}, policy.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::travel-receipts/receipts/*"}, policy.Statement[0].Resource)
}

func TestNewPostgresDB_MissingURL(t *testing.T) {
	_, err := NewPostgresDB(&Config{}, zap.NewNop())
	assert.ErrorContains(t, err, "DATABASE_URL")
}
