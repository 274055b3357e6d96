package config

import (
	"fmt"
	"time"
)

// Defaults applied by the config views when a value was not set by any source.
const (
	DefaultRetry          = 10
	DefaultBatchSize      = 200
	DefaultRequestTimeout = 30 * time.Second
	DefaultDriver         = "sqlite3"
	DefaultSyncInterval   = time.Minute
	DefaultPageSize       = 500
	DefaultTokenDuration  = time.Hour
	DefaultTokenIssuer    = "record-sync-sandbox"
)

// ClientAdapter holds settings of the client transport layer.
type ClientAdapter struct {
	HTTPAddress    string
	RequestTimeout time.Duration
	Username       string
	Password       string
}

// ClientSync holds the sync engine settings of the client.
type ClientSync struct {
	Retry     int
	BatchSize int
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	DSN    string
	Driver string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	SyncInterval time.Duration
}

// ClientConfig is the configuration view of the recordsync client.
type ClientConfig struct {
	Adapter ClientAdapter
	Sync    ClientSync
	Storage ClientStorage
	Workers ClientWorkers

	// Args holds the positional command-line arguments left after flags.
	Args []string
}

// SandboxConfig is the configuration view of the sandbox record store.
type SandboxConfig struct {
	HTTPAddress    string
	GRPCAddress    string
	RequestTimeout time.Duration
	PageSize       int

	TokenSignKey  string
	TokenIssuer   string
	TokenDuration time.Duration

	Username string
	Password string
}

// GetClientConfig builds and validates the client view of the merged
// configuration.
func GetClientConfig() (*ClientConfig, error) {
	cfg, args, err := loadStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := cfg.ClientView()
	clientCfg.Args = args

	return clientCfg, clientCfg.validate()
}

// GetSandboxConfig builds and validates the sandbox view of the merged
// configuration.
func GetSandboxConfig() (*SandboxConfig, error) {
	cfg, _, err := loadStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	sandboxCfg := cfg.SandboxView()
	return sandboxCfg, sandboxCfg.validate()
}

// ClientView maps the client-relevant fields and fills defaults.
func (cfg *StructuredConfig) ClientView() *ClientConfig {
	retry := DefaultRetry
	if cfg.Sync.Retry != nil {
		retry = *cfg.Sync.Retry
	}

	return &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: orDefault(cfg.Adapter.RequestTimeout, DefaultRequestTimeout),
			Username:       cfg.Adapter.Username,
			Password:       cfg.Adapter.Password,
		},
		Sync: ClientSync{
			Retry:     retry,
			BatchSize: orDefault(cfg.Sync.BatchSize, DefaultBatchSize),
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN:    cfg.Storage.DB.DSN,
				Driver: orDefault(cfg.Storage.DB.Driver, DefaultDriver),
			},
		},
		Workers: ClientWorkers{
			SyncInterval: orDefault(cfg.Workers.SyncInterval, DefaultSyncInterval),
		},
	}
}

// SandboxView maps the sandbox-relevant fields and fills defaults.
func (cfg *StructuredConfig) SandboxView() *SandboxConfig {
	return &SandboxConfig{
		HTTPAddress:    cfg.Server.HTTPAddress,
		GRPCAddress:    cfg.Server.GRPCAddress,
		RequestTimeout: orDefault(cfg.Server.RequestTimeout, DefaultRequestTimeout),
		PageSize:       orDefault(cfg.Server.PageSize, DefaultPageSize),
		TokenSignKey:   cfg.Server.TokenSignKey,
		TokenIssuer:    orDefault(cfg.Server.TokenIssuer, DefaultTokenIssuer),
		TokenDuration:  orDefault(cfg.Server.TokenDuration, DefaultTokenDuration),
		Username:       cfg.Server.Username,
		Password:       cfg.Server.Password,
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
