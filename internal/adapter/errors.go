package adapter

import (
	"errors"
)

var (
	// ErrConfiguration is returned when a provider name is not registered.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingCredentials is returned when an OAuth-backed provider is
	// requested without both credentials and client configuration.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrAuthentication is returned when initial authentication or a token
	// refresh fails. It is terminal for the adapter instance.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransfer is returned when a read or upload fails at the backend.
	ErrTransfer = errors.New("transfer failed")

	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")
)
