package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Entity Errors.

	// ErrEmptyEntityID indicates a connector produced a record without identity.
	ErrEmptyEntityID = errors.New("entity has empty identifier")

	// ErrMissingLocation indicates a file entity has no location to stream from.
	ErrMissingLocation = errors.New("file entity has no location")

	// ErrInvalidTimestamp indicates an upstream timestamp could not be parsed.
	// This is treated as a connector defect and aborts the sync pass.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// Authentication Errors.

	// ErrAuthRequired indicates the connector requires authentication but none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Connector Errors.

	// ErrMissingConfig indicates a required configuration key or section is absent.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrConnectorValidation indicates connector validation failed.
	// The source is misconfigured or credentials are invalid.
	ErrConnectorValidation = errors.New("connector validation failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
