// Package ui provides the Bubble Tea TUI for keywatch.
package ui

import "github.com/abelbrown/keywatch/internal/filter"

// CycleStarted is sent when a fetch cycle begins.
type CycleStarted struct{}

// CycleComplete is sent when a fetch cycle finishes.
type CycleComplete struct {
	// Items is the final deduplicated, matched, limited, recency-sorted feed.
	Items []filter.Matched
	// NewItems counts items never archived before.
	NewItems int
	// Tasks is the number of (source, keyword) fetches dispatched.
	Tasks int
	// Failures holds formatted soft-failure descriptions, one per failed task.
	Failures []string
	// Err is set when the cycle as a whole could not run
	// (e.g. no keywords to monitor).
	Err error
}

// CycleDropped is sent when a cycle request arrived while another cycle
// was already in flight.
type CycleDropped struct{}
