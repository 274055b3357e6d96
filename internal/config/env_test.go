// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	setEnvVars(t, map[string]string{
		"CONFIG": "/path/to/config.json",

		"ADAPTER_ADDRESS":         "http://localhost:8080",
		"ADAPTER_REQUEST_TIMEOUT": "15s",
		"ADAPTER_USERNAME":        "integration",
		"ADAPTER_PASSWORD":        "secret",

		"SYNC_RETRY":      "3",
		"SYNC_BATCH_SIZE": "50",

		"STORAGE_DB_DSN":    "outbox.db",
		"STORAGE_DB_DRIVER": "sqlite3",

		"WORKERS_SYNC_INTERVAL": "2m",

		"SERVER_ADDRESS":        "localhost:8080",
		"SERVER_GRPC_ADDRESS":   "localhost:9090",
		"SERVER_PAGE_SIZE":      "25",
		"SERVER_TOKEN_SIGN_KEY": "jwt_secret",
		"SERVER_TOKEN_DURATION": "1h",
		"SERVER_USERNAME":       "integration",
		"SERVER_PASSWORD":       "secret",
	})

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "http://localhost:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 15*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, "integration", cfg.Adapter.Username)
	assert.Equal(t, "secret", cfg.Adapter.Password)

	require.NotNil(t, cfg.Sync.Retry)
	assert.Equal(t, 3, *cfg.Sync.Retry)
	assert.Equal(t, 50, cfg.Sync.BatchSize)

	assert.Equal(t, "outbox.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "sqlite3", cfg.Storage.DB.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Workers.SyncInterval)

	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, "localhost:9090", cfg.Server.GRPCAddress)
	assert.Equal(t, 25, cfg.Server.PageSize)
	assert.Equal(t, "jwt_secret", cfg.Server.TokenSignKey)
	assert.Equal(t, time.Hour, cfg.Server.TokenDuration)
}

func TestParseEnv_RetryZeroIsExplicit(t *testing.T) {
	setEnvVars(t, map[string]string{"SYNC_RETRY": "0"})

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	require.NotNil(t, cfg.Sync.Retry)
	assert.Equal(t, 0, *cfg.Sync.Retry)
	assert.Equal(t, 0, cfg.ClientView().Sync.Retry)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	setEnvVars(t, map[string]string{"ADAPTER_REQUEST_TIMEOUT": "soon"})

	err := parseEnv(&StructuredConfig{})
	assert.Error(t, err)
}

func TestParseEnv_NamespacedOverridesPlain(t *testing.T) {
	setEnvVars(t, map[string]string{
		"ADAPTER_ADDRESS":            "http://plain",
		"RECORDSYNC_ADAPTER_ADDRESS": "http://namespaced",
		"SYNC_BATCH_SIZE":            "50",
	})

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "http://namespaced", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 50, cfg.Sync.BatchSize, "plain variables still apply")
}
