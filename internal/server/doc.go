// Package server wires and runs the transport servers of the sandbox record
// store.
//
// It provides orchestration for the HTTP RPC endpoint and the gRPC health
// endpoint, including startup, signal handling, and graceful shutdown of all
// enabled transports.
package server
