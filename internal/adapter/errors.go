package adapter

import "errors"

var (
	// ErrTransportFault wraps every failure to complete a call: network
	// errors, non-2xx responses and undecodable bodies.
	ErrTransportFault = errors.New("transport fault")
	// ErrUnauthorized is returned when the remote rejected the credentials
	// or the session token.
	ErrUnauthorized = errors.New("client unauthorized")
	// ErrRemote is returned when the remote answered with an RPC error object.
	ErrRemote = errors.New("remote error")
	// ErrNoCredentials is returned when a session is needed but no user name
	// was configured.
	ErrNoCredentials = errors.New("no credentials configured")
)
