package walkthrough

import "errors"

var (
	// ErrInvalidCatalog indicates a step catalog that is not exactly the eight
	// ordered stages.
	ErrInvalidCatalog = errors.New("walkthrough: invalid step catalog")

	// ErrUnknownSection indicates a section name that does not map to any
	// part of the architecture flow.
	ErrUnknownSection = errors.New("walkthrough: unknown section")
)
