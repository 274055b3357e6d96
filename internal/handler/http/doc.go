// Package http implements the HTTP transport of the sandbox record store.
//
// It exposes a single JSON-RPC endpoint, POST /rpc, speaking the dialect the
// client adapter uses: login, create, update, delete, query and queryMore.
// Session checks, request tracing, access logging and response compression
// are handled by middleware before a call reaches the record store.
package http
