package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/utils"
)

// session reads an optional bearer session token. A valid token stores the
// user name in the request context under [utils.UsernameCtxKey]; a present
// but invalid one is rejected with 401 and INVALID_SESSION_ID. Requests
// without a token pass through so that login can be called.
func (h *Handler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			h.writeError(w, log, fmt.Errorf("%w: %w", ErrInvalidAuthorizationHeader, err))
			return
		}

		session, err := utils.ValidateAndParseJWTToken(tokenString, h.auth.signKey, h.auth.issuer)
		if err != nil {
			h.writeError(w, log, fmt.Errorf("%w: %w", ErrSessionRequired, err))
			return
		}

		ctx := context.WithValue(r.Context(), utils.UsernameCtxKey, session.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
