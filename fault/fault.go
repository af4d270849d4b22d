/*
Package fault defines the error taxonomy shared by the cartridge decoders, the
sound codec and the render caches.

Every error returned by those packages wraps one of the sentinels below so
callers can classify a failure with errors.Is without depending on the
package that produced it.
*/
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is the parent of every cartridge syntax error
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownHeader is returned for a section delimiter that names no known section
	ErrUnknownHeader = fmt.Errorf("%w: unknown header", ErrMalformedInput)

	// ErrRaggedRow is returned when a line of a grid section differs in length from the first
	ErrRaggedRow = fmt.Errorf("%w: ragged row", ErrMalformedInput)

	// ErrUnexpectedHex is returned for a character that is not a valid digit
	ErrUnexpectedHex = fmt.Errorf("%w: unexpected hex digit", ErrMalformedInput)

	// ErrMissing is returned when a required field is absent
	ErrMissing = fmt.Errorf("%w: missing", ErrMalformedInput)

	// ErrUnsupportedEncoding is returned for out of range note fields
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrDecompression is returned when the binary cartridge payload cannot be recovered
	ErrDecompression = errors.New("decompression failure")

	// ErrResourceNotFound is returned for stale palette, bitmap or primitive lookups
	ErrResourceNotFound = errors.New("resource not found")
)
