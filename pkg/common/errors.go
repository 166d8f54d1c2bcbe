package common

import "errors"

var (
	// ErrInvalidRecord rejects a record whose primary metric is undefined.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrNotFound is the expected outcome of a lookup miss.
	ErrNotFound = errors.New("key not found")
	// ErrMalformedCriteria rejects a criteria search before traversal.
	ErrMalformedCriteria = errors.New("malformed criteria")
)
