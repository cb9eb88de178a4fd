package delta

import "errors"

// Schema errors
var (
	ErrMalformedJSON = errors.New("malformed delta JSON")
	ErrEmptyDelta    = errors.New("delta has no steps")
	ErrMissingLabel  = errors.New("step label is required")
	ErrUnknownKind   = errors.New("unknown step kind")
)

// IsSchemaError reports whether err belongs to the delta schema error
// family, the class of failures callers should treat as a bad request.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrMalformedJSON) ||
		errors.Is(err, ErrEmptyDelta) ||
		errors.Is(err, ErrMissingLabel) ||
		errors.Is(err, ErrUnknownKind)
}
