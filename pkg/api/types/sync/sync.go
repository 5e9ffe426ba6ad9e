// Package sync defines payloads of synchronization APIs.
package sync

import "github.com/heatcare/heatcare/pkg/mandantsync"

// Result is the response of POST /api/sync/mandants/ .
type Result struct {
	Summary mandantsync.Summary `json:"summary"`

	// seconds taken
	Elapsed float64 `json:"elapsed"`
}
