package domain

import "errors"

var (
	// ErrUnknownRole is returned when a role is not OWNER, MANAGER or TENANT.
	ErrUnknownRole = errors.New("unknown role")
	// ErrCorruptSession marks a stored session whose identity cannot be decoded.
	ErrCorruptSession = errors.New("corrupt stored session")
	// ErrInvalidResponse marks a 2xx response that breaks its contract,
	// e.g. a registration result without a token.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidInput wraps validation failures raised before a request is sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrHasDependents is returned when the server refuses a delete because
	// other records still reference the target.
	ErrHasDependents = errors.New("record has dependent records")
)
