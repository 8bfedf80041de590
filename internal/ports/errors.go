package ports

import "errors"

// Errors shared across the boundary, so adapters can classify failures
// without importing the application.
var (
	// ErrSetNotFound is returned when a scan or lookup names no compiled set.
	ErrSetNotFound = errors.New("pattern set not found")
	// ErrUnknownScanMode is returned for a scan mode name outside the closed set.
	ErrUnknownScanMode = errors.New("unknown scan mode")
)
