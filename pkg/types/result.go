package types

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Result aggregates the outcome of one reindex run.
//
// FailedUnits lets callers tell "zero chunks because nothing changed" apart
// from "zero chunks because every worker failed".
type Result struct {
	Chunks      int // chunks upserted across all successful units
	Files       int // files recorded in the authoritative manifest
	FailedUnits int // dispatched work items that raised
	Skipped     int // documents dropped as unreadable or blank
}

// Summary renders the human-readable run report returned to the caller.
func (r Result) Summary() string {
	s := fmt.Sprintf("Indexed %s chunks from %d file(s).",
		humanize.Comma(int64(r.Chunks)), r.Files)
	if r.FailedUnits > 0 {
		s += fmt.Sprintf(" %d worker(s) failed; re-running is safe, already-indexed files are skipped.",
			r.FailedUnits)
	}
	return s
}
