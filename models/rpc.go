package models

import (
	"encoding/json"
	"fmt"
)

// RPC method names of the remote record store dialect.
const (
	MethodLogin     = "login"
	MethodCreate    = "create"
	MethodUpdate    = "update"
	MethodDelete    = "delete"
	MethodQuery     = "query"
	MethodQueryMore = "queryMore"
)

// RPC error codes returned in [RPCError.Code].
const (
	RPCInvalidSession = "INVALID_SESSION_ID"
	RPCInvalidLogin   = "INVALID_LOGIN"
	RPCMalformedQuery = "MALFORMED_QUERY"
	RPCInvalidLocator = "INVALID_QUERY_LOCATOR"
	RPCInvalidRequest = "INVALID_REQUEST"
	RPCUnknownMethod  = "UNKNOWN_METHOD"
)

// RPCRequest is the envelope of every call: POST /rpc.
type RPCRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RPCResponse carries either a result or an error.
type RPCResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is a call-level failure, as opposed to per-record write errors.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoginResult is the result of the login method.
type LoginResult struct {
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName"`
}

// WriteParams are the params of create and update.
type WriteParams struct {
	Type    string   `json:"type"`
	Records []Record `json:"records"`
}

// DeleteParams are the params of delete.
type DeleteParams struct {
	IDs []string `json:"ids"`
}

// QueryParams are the params of query.
type QueryParams struct {
	Query string `json:"query"`
}

// QueryMoreParams are the params of queryMore.
type QueryMoreParams struct {
	QueryLocator string `json:"queryLocator"`
}
