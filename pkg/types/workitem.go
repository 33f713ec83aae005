package types

import "fmt"

// WorkItem is the unit of distributable work: either a list of regular
// file paths, or a slice of one archive's entry names. The planner
// guarantees that the items of one plan partition the input exactly, at
// both the file level and the archive-entry level.
type WorkItem struct {
	Files   []string // regular file paths; empty for archive items
	Archive string   // archive path; empty for file items
	Entries []string // entry names within Archive
}

// IsArchive reports whether the item carries a slice of archive entries.
func (w WorkItem) IsArchive() bool {
	return w.Archive != ""
}

// Validate rejects malformed work descriptors: an item must carry either
// files or an archive slice, never both and never neither.
func (w WorkItem) Validate() error {
	switch {
	case len(w.Files) == 0 && w.Archive == "":
		return fmt.Errorf("%w: empty descriptor", ErrInvalidWorkItem)
	case len(w.Files) > 0 && w.Archive != "":
		return fmt.Errorf("%w: both files and archive set", ErrInvalidWorkItem)
	case w.Archive != "" && len(w.Entries) == 0:
		return fmt.Errorf("%w: archive %s has no entries", ErrInvalidWorkItem, w.Archive)
	}
	return nil
}

// Sources returns the store file paths the item covers: its file paths,
// or the archive path. Used for partial-manifest bookkeeping.
func (w WorkItem) Sources() []string {
	if w.IsArchive() {
		return []string{w.Archive}
	}
	return append([]string(nil), w.Files...)
}
