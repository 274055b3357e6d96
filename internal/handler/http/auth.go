package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
)

func (h *Handler) login(ctx context.Context, params json.RawMessage) (any, error) {
	log := logger.FromContext(ctx)

	var creds models.Credentials
	if err := json.Unmarshal(params, &creds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	if creds.Username != h.auth.username {
		log.Warn().Str("username", creds.Username).Msg("login with unknown username")
		return nil, ErrWrongCredentials
	}
	if err := bcrypt.CompareHashAndPassword(h.auth.passwordHash, []byte(creds.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Warn().Str("username", creds.Username).Msg("login with wrong password")
			return nil, ErrWrongCredentials
		}
		return nil, fmt.Errorf("compare password hash: %w", err)
	}

	session, err := utils.GenerateJWTToken(h.auth.issuer, creds.Username, h.auth.duration, h.auth.signKey)
	if err != nil {
		return nil, fmt.Errorf("creation of token failed: %w", err)
	}

	log.Debug().Str("username", creds.Username).Msg("user successfully logged in")
	return models.LoginResult{SessionID: session.SignedString, UserName: creds.Username}, nil
}
