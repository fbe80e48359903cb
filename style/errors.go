package style

import "errors"

// Structural problems abort the whole compilation, there is no partial
// output. Compile wraps these with the offending key path.
var (
	ErrMissingName     = errors.New("modifier spec is missing required name")
	ErrMissingSelector = errors.New("child spec is missing required selector")
	ErrMissingParam    = errors.New("parameterized pseudo is missing required param")
	ErrBadStructure    = errors.New("malformed style structure")
)

// Registry construction errors.
var (
	ErrUnknownBreakpoint   = errors.New("unknown breakpoint name")
	ErrDuplicateBreakpoint = errors.New("duplicate breakpoint name")
	ErrMobileOnlyInherit   = errors.New("cannot inherit from a mobile-only breakpoint")
)
