package signature

import "errors"

var (
	// ErrUnavailable is returned when the catalog has not been initialized.
	ErrUnavailable = errors.New("signature catalog is not initialized")

	// ErrEntryNotFound is returned when no entry with the requested name exists in the category.
	ErrEntryNotFound = errors.New("signature entry not found")

	// ErrInvalidEntry is returned when an entry fails validation at catalog load time.
	ErrInvalidEntry = errors.New("invalid signature entry")

	// ErrInvalidPattern is returned when a pattern cannot be compiled into a matcher.
	ErrInvalidPattern = errors.New("invalid signature pattern")

	// ErrUnknownCategory is returned for categories other than device, browser and os.
	ErrUnknownCategory = errors.New("unknown signature category")
)
