// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container. It aggregates
// all sub-configurations and is populated by merging values from environment
// variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Adapter holds the remote record store endpoint and credentials.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds the synchronization engine settings.
	Sync Sync `envPrefix:"SYNC_"`

	// Storage holds the local outbox database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Workers holds background worker settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// Server holds the sandbox record store settings.
	Server Server `envPrefix:"SERVER_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Adapter holds the connection settings of the remote record store.
type Adapter struct {
	// HTTPAddress is the base URL of the remote RPC endpoint
	// (e.g. "http://localhost:8080").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound call (e.g. "30s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Env: ADAPTER_USERNAME
	Username string `env:"USERNAME"`

	// Env: ADAPTER_PASSWORD
	Password string `env:"PASSWORD"`
}

// Sync holds the synchronization engine settings.
type Sync struct {
	// Retry is the retry budget for transient write failures. Nil means
	// unset; an explicit zero disables retries.
	// Env: SYNC_RETRY
	Retry *int `env:"RETRY"`

	// BatchSize caps the number of records sent in one write call.
	// Env: SYNC_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`
}

// Storage groups the local persistence settings.
type Storage struct {
	DB DB `envPrefix:"DB_"`
}

// DB holds the local database connection settings.
type DB struct {
	// DSN is the connection string, a file path for sqlite3 or a
	// postgres URL for pgx.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`

	// Driver is "sqlite3" or "pgx".
	// Env: STORAGE_DB_DRIVER
	Driver string `env:"DRIVER"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SyncInterval is how often the outbox push job runs in watch mode.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// Server holds the sandbox record store settings.
type Server struct {
	// HTTPAddress is the TCP address of the RPC endpoint, "host:port".
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the TCP address of the gRPC health endpoint.
	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout is the maximum duration of a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// PageSize is the number of records per query page.
	// Env: SERVER_PAGE_SIZE
	PageSize int `env:"PAGE_SIZE"`

	// Env: SERVER_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// Env: SERVER_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// Env: SERVER_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// Username and Password are the only credentials the sandbox accepts.
	// Env: SERVER_USERNAME, SERVER_PASSWORD
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (the first source that sets a field wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, _, err := loadStructuredConfig()
	return cfg, err
}

func loadStructuredConfig() (*StructuredConfig, []string, error) {
	b := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON()

	cfg, err := b.build()
	return cfg, b.args, err
}
