// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
)

const maxRequestBytes = 8 << 20

// writeParams mirrors [models.WriteParams] with records kept as plain JSON
// objects.
type writeParams struct {
	Type    string           `json:"type"`
	Records []map[string]any `json:"records"`
}

func (h *Handler) rpc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.RPCRequest
	if err := utils.ReadJSON(r.Body, &req, maxRequestBytes); err != nil {
		h.writeError(w, log, fmt.Errorf("%w: %w", ErrInvalidParams, err))
		return
	}

	sublog := log.With().Str("rpc_method", req.Method).Logger()
	log = &logger.Logger{Logger: sublog}
	ctx = log.WithContext(ctx)

	if req.Method != models.MethodLogin {
		if _, ok := utils.GetUsernameFromContext(ctx); !ok {
			h.writeError(w, log, ErrSessionRequired)
			return
		}
	}

	result, err := h.dispatch(ctx, req)
	if err != nil {
		h.writeError(w, log, err)
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		h.writeError(w, log, fmt.Errorf("encode %s result: %w", req.Method, err))
		return
	}

	if _, err = utils.WriteJSON(w, models.RPCResponse{Result: raw}, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.rpc").Msg("error writing response")
	}
}

func (h *Handler) dispatch(ctx context.Context, req models.RPCRequest) (any, error) {
	switch req.Method {
	case models.MethodLogin:
		return h.login(ctx, req.Params)
	case models.MethodCreate, models.MethodUpdate:
		var p writeParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if p.Type == "" {
			return nil, fmt.Errorf("%w: empty type", ErrInvalidParams)
		}
		if req.Method == models.MethodCreate {
			return h.store.Create(p.Type, p.Records), nil
		}
		return h.store.Update(p.Type, p.Records), nil
	case models.MethodDelete:
		var p models.DeleteParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.store.Delete(p.IDs), nil
	case models.MethodQuery:
		var p models.QueryParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.store.Query(p.Query)
	case models.MethodQueryMore:
		var p models.QueryMoreParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.store.QueryMore(p.QueryLocator)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing params", ErrInvalidParams)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	rpcErr, status := rpcErrorFromError(err)
	if status == http.StatusInternalServerError {
		log.Err(err).Str("func", "*Handler.writeError").Msg("unexpected error occurred during rpc call")
	} else {
		log.Warn().Err(err).Str("code", rpcErr.Code).Msg("rpc call rejected")
	}

	if _, werr := utils.WriteJSON(w, models.RPCResponse{Error: rpcErr}, status); werr != nil {
		log.Err(werr).Str("func", "*Handler.writeError").Msg("error writing response")
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
