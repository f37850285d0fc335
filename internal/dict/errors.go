package dict

import "errors"

var (
	// ErrUnknownPortableType is returned for a type code outside the portable vocabulary
	ErrUnknownPortableType = errors.New("unknown portable type")

	// ErrMalformedDefinition is returned when a definition string or generator input is invalid
	ErrMalformedDefinition = errors.New("malformed definition")

	// ErrUnknownDialect is returned by Lookup for an unregistered dialect name
	ErrUnknownDialect = errors.New("unknown dialect")
)
