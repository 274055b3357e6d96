// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks the merged [StructuredConfig] for values that are invalid
// regardless of which binary consumes them.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.Retry != nil && *cfg.Sync.Retry < 0 {
		return fmt.Errorf("%w: negative retry budget %d", ErrInvalidSyncConfigs, *cfg.Sync.Retry)
	}
	if cfg.Sync.BatchSize < 0 {
		return fmt.Errorf("%w: negative batch size %d", ErrInvalidSyncConfigs, cfg.Sync.BatchSize)
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}
	switch cfg.Storage.DB.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidStorageConfigs, cfg.Storage.DB.Driver)
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.Username == "" {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (cfg *SandboxConfig) validate() error {
	if cfg.HTTPAddress == "" || cfg.PageSize < 1 {
		return ErrInvalidServerConfigs
	}
	if cfg.TokenSignKey == "" || cfg.Username == "" || cfg.Password == "" {
		return ErrInvalidAuthConfigs
	}
	return nil
}
