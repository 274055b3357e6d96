package http

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/sandbox"
	"github.com/MKhiriev/go-record-sync/models"
)

// RecordStore is the record store served over RPC.
type RecordStore interface {
	Create(objectType string, records []map[string]any) []models.SyncResult
	Update(objectType string, records []map[string]any) []models.SyncResult
	Delete(ids []string) []models.SyncResult
	Query(text string) (sandbox.QueryResult, error)
	QueryMore(locator string) (sandbox.QueryResult, error)
}

type authSettings struct {
	username     string
	passwordHash []byte

	signKey  string
	issuer   string
	duration time.Duration
}

type Handler struct {
	store          RecordStore
	auth           authSettings
	requestTimeout time.Duration

	logger *logger.Logger
}

// NewHandler creates a Handler serving store. The configured password is
// kept only as a bcrypt hash.
func NewHandler(store RecordStore, cfg config.SandboxConfig, log *logger.Logger) (*Handler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash sandbox password: %w", err)
	}

	log.Info().Msg("http handler created")
	return &Handler{
		store: store,
		auth: authSettings{
			username:     cfg.Username,
			passwordHash: hash,
			signKey:      cfg.TokenSignKey,
			issuer:       cfg.TokenIssuer,
			duration:     cfg.TokenDuration,
		},
		requestTimeout: cfg.RequestTimeout,
		logger:         log,
	}, nil
}
