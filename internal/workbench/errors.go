package workbench

import "errors"

// Operation failures callers can branch on with errors.Is. Storage-capacity
// failures are the exception: they surface as *store.QuotaCleanupState so the
// caller can drive cleanup tooling instead of a retry loop.
var (
	// ErrNotFound reports an update or read targeting a non-existent entity
	// id. Never silently creates the entity.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports caller-supplied input failing a precondition,
	// rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidArchive reports a backup missing its manifest or failing to
	// parse. The import is rejected wholesale; no partial import happens.
	ErrInvalidArchive = errors.New("invalid backup archive")
)
