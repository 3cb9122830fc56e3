package session

import "errors"

var (
	// ErrInvalidArgument marks malformed caller input; never retried.
	ErrInvalidArgument = errors.New("session: invalid argument")

	// ErrNotAuthenticated is returned by operations that need a
	// logged-in session.
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrProtocol marks an unparseable or unexpected server response,
	// e.g. a failed token scrape. The login pipeline retries these.
	ErrProtocol = errors.New("session: protocol error")

	// ErrLoginFailed is terminal: the whole login pipeline failed after
	// its retry budget.
	ErrLoginFailed = errors.New("session: login failed")

	// ErrTransport marks a dropped or timed-out persistent connection.
	// Non-terminal; the session reconnects on its own.
	ErrTransport = errors.New("session: transport error")

	// ErrAlreadyConnected is returned when a socket is already open.
	ErrAlreadyConnected = errors.New("session: socket already open")
)
