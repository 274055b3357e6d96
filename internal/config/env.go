// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envNamespace prefixes the variables of a shared environment, e.g.
// RECORDSYNC_ADAPTER_ADDRESS.
const envNamespace = "RECORDSYNC_"

// parseEnv populates cfg from environment variables through the `env` and
// `envPrefix` tags of [StructuredConfig]. A namespaced variable overrides
// its plain counterpart.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envNamespace}); err != nil {
		return fmt.Errorf("error getting %s env configs: %w", envNamespace, err)
	}

	return nil
}
