// Package export renders read-only snapshots of a workshop session: a JSON
// and plain-text summary, a collaboration board layout and a slide deck.
package export

import "errors"

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrStorageDisabled indicates no artifact store is configured.
	ErrStorageDisabled = errors.New("export storage disabled")
)
