package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/normalizer"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
	"github.com/go-resty/resty/v2"
)

const (
	rpcPath       = "/rpc"
	traceIDHeader = "X-Trace-ID"

	// sessionLeeway renews a session shortly before it expires.
	sessionLeeway = 30 * time.Second
)

type httpRemoteStore struct {
	client      *utils.HTTPClient
	credentials models.Credentials
	normalizer  *normalizer.Normalizer

	mu      sync.Mutex
	session models.Session

	now    func() time.Time
	logger *logger.Logger
}

// NewHTTPRemoteStore constructs the HTTP JSON-RPC implementation of
// [RemoteStore]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures the underlying HTTP client with the
// resolved base URL and request timeout. Query results are normalized with n.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteStore(adapterCfg config.ClientAdapter, n *normalizer.Normalizer, log *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	if n == nil {
		n = normalizer.New(log)
	}

	return &httpRemoteStore{
		client: utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		credentials: models.Credentials{
			Username: adapterCfg.Username,
			Password: adapterCfg.Password,
		},
		normalizer: n,
		now:        time.Now,
		logger:     log.WithComponent("remote_store"),
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Login implements [RemoteStore]. It calls the login method with the
// configured credentials and keeps the returned session for later calls.
func (h *httpRemoteStore) Login(ctx context.Context) (models.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, err := h.login(ctx)
	if err != nil {
		return models.Session{}, err
	}
	h.session = session
	return session, nil
}

// Write implements [RecordWriter]. Create and update send the full records;
// delete sends only their identifiers.
func (h *httpRemoteStore) Write(ctx context.Context, op models.Operation, objectType string, records []models.Record) ([]models.SyncResult, error) {
	var params any
	switch op {
	case models.OperationCreate, models.OperationUpdate:
		params = models.WriteParams{Type: objectType, Records: records}
	case models.OperationDelete:
		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		params = models.DeleteParams{IDs: ids}
	default:
		return nil, fmt.Errorf("unsupported operation %q", op)
	}

	raw, err := h.authedCall(ctx, string(op), params)
	if err != nil {
		return nil, err
	}

	var results []models.SyncResult
	if err = json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("%w: decode %s result: %w", ErrTransportFault, op, err)
	}
	if len(results) != len(records) {
		h.logger.Warn().
			Str("operation", string(op)).
			Str("type", objectType).
			Int("sent", len(records)).
			Int("results", len(results)).
			Msg("result count does not match record count")
	}

	return results, nil
}

// Query implements [RecordReader].
func (h *httpRemoteStore) Query(ctx context.Context, q models.Query) (models.Page, error) {
	raw, err := h.authedCall(ctx, models.MethodQuery, models.QueryParams{Query: q.String()})
	if err != nil {
		return models.Page{}, err
	}
	return h.page(raw)
}

// QueryMore implements [RecordFetcher].
func (h *httpRemoteStore) QueryMore(ctx context.Context, locator string) (models.Page, error) {
	raw, err := h.authedCall(ctx, models.MethodQueryMore, models.QueryMoreParams{QueryLocator: locator})
	if err != nil {
		return models.Page{}, err
	}
	return h.page(raw)
}

func (h *httpRemoteStore) page(raw json.RawMessage) (models.Page, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: %w", ErrTransportFault, err)
	}
	page, err := h.normalizer.Page(p)
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: %w", ErrTransportFault, err)
	}
	return page, nil
}

// authedCall performs method with a valid session, logging in again once when
// the remote rejects the current session.
func (h *httpRemoteStore) authedCall(ctx context.Context, method string, params any) (json.RawMessage, error) {
	token, err := h.sessionToken(ctx, false)
	if err != nil {
		return nil, err
	}

	raw, err := h.call(ctx, method, params, token)
	if !errors.Is(err, ErrUnauthorized) {
		return raw, err
	}

	h.logger.Info().Str("method", method).Msg("session rejected, logging in again")
	if token, err = h.sessionToken(ctx, true); err != nil {
		return nil, err
	}
	return h.call(ctx, method, params, token)
}

func (h *httpRemoteStore) sessionToken(ctx context.Context, renew bool) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !renew && h.session.SignedString != "" && !h.session.Expired(h.now(), sessionLeeway) {
		return h.session.SignedString, nil
	}

	session, err := h.login(ctx)
	if err != nil {
		return "", err
	}
	h.session = session
	return session.SignedString, nil
}

func (h *httpRemoteStore) login(ctx context.Context) (models.Session, error) {
	if h.credentials.Username == "" {
		return models.Session{}, ErrNoCredentials
	}

	raw, err := h.call(ctx, models.MethodLogin, h.credentials, "")
	if err != nil {
		return models.Session{}, fmt.Errorf("login: %w", err)
	}

	var result models.LoginResult
	if err = json.Unmarshal(raw, &result); err != nil || result.SessionID == "" {
		return models.Session{}, fmt.Errorf("%w: login returned no session", ErrTransportFault)
	}

	session, err := utils.ParseSessionUnverified(result.SessionID)
	if err != nil {
		// opaque session ids are valid too; they just carry no expiry
		session = models.Session{SignedString: result.SessionID}
	}

	h.logger.Debug().Str("user", h.credentials.Username).Msg("session opened")
	return session, nil
}

func (h *httpRemoteStore) call(ctx context.Context, method string, params any, token string) (json.RawMessage, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}

	req := h.client.R().
		SetContext(ctx).
		SetBody(models.RPCRequest{Method: method, Params: encoded})
	if token != "" {
		req.SetAuthToken(token)
	}
	if traceID, ok := utils.GetTraceIDFromContext(ctx); ok {
		req.SetHeader(traceIDHeader, traceID)
	}

	started := h.now()
	resp, err := req.Post(rpcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %w", ErrTransportFault, method, err)
	}
	h.logRPC(method, resp, started)

	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var envelope models.RPCResponse
	if err = json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %w", ErrTransportFault, method, err)
	}
	if envelope.Error != nil {
		if envelope.Error.Code == models.RPCInvalidSession {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, envelope.Error)
		}
		return nil, fmt.Errorf("%w: %w", ErrRemote, envelope.Error)
	}

	return envelope.Result, nil
}

func (h *httpRemoteStore) logRPC(method string, resp *resty.Response, started time.Time) {
	h.logger.Debug().
		Str("method", method).
		Int("status", resp.StatusCode()).
		Int("bytes", len(resp.Body())).
		Dur("elapsed", h.now().Sub(started)).
		Msg("rpc call")
}
