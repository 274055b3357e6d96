// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-record-sync/internal/sandbox"
	"github.com/MKhiriev/go-record-sync/models"
)

var (
	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header is present but is not a bearer token.
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrSessionRequired is returned when a method other than login is
	// called without a session.
	ErrSessionRequired = errors.New("session required")

	// ErrWrongCredentials is returned by login for an unknown user name or a
	// wrong password.
	ErrWrongCredentials = errors.New("invalid username or password")

	// ErrInvalidParams is returned when the params of a call cannot be
	// decoded or miss a mandatory member.
	ErrInvalidParams = errors.New("invalid params")

	// ErrUnknownMethod is returned for methods outside the dialect.
	ErrUnknownMethod = errors.New("unknown method")
)

type rpcFailure struct {
	code   string
	status int
}

var errorCodeMap = map[error]rpcFailure{
	ErrInvalidAuthorizationHeader: {models.RPCInvalidSession, http.StatusUnauthorized},
	ErrSessionRequired:            {models.RPCInvalidSession, http.StatusUnauthorized},
	ErrWrongCredentials:           {models.RPCInvalidLogin, http.StatusOK},
	ErrInvalidParams:              {models.RPCInvalidRequest, http.StatusBadRequest},
	ErrUnknownMethod:              {models.RPCUnknownMethod, http.StatusOK},

	sandbox.ErrMalformedQuery: {models.RPCMalformedQuery, http.StatusOK},
	sandbox.ErrInvalidLocator: {models.RPCInvalidLocator, http.StatusOK},
}

// rpcErrorFromError maps err to the RPC error object and the HTTP status it
// is sent with. Unknown errors become an internal error.
func rpcErrorFromError(err error) (*models.RPCError, int) {
	for target, f := range errorCodeMap {
		if errors.Is(err, target) {
			return &models.RPCError{Code: f.code, Message: err.Error()}, f.status
		}
	}
	return &models.RPCError{
		Code:    "UNKNOWN_EXCEPTION",
		Message: http.StatusText(http.StatusInternalServerError),
	}, http.StatusInternalServerError
}
