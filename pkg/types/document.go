package types

// Metadata keys attached to every record.
const (
	MetaSource   = "source"   // name of the originating store file
	MetaFilename = "filename" // archive entry name, absent for regular files
)

// Document is one unit of extractable text: a source file or a single
// archive entry. Documents are ephemeral; they live only inside one
// worker's processing of one work item.
type Document struct {
	Source   string            // store file name, e.g. "handbook.zip"
	Text     string            // extracted plain text
	Metadata map[string]string // source plus optional filename
}

// NewDocument creates a document for a regular store file.
func NewDocument(source, text string) Document {
	return Document{
		Source:   source,
		Text:     text,
		Metadata: map[string]string{MetaSource: source},
	}
}

// NewEntryDocument creates a document for one archive entry.
func NewEntryDocument(source, entry, text string) Document {
	return Document{
		Source:   source,
		Text:     text,
		Metadata: map[string]string{MetaSource: source, MetaFilename: entry},
	}
}

// Record is one embedded chunk ready for upsert into the vector store.
// Exactly one record exists per chunk; IDs are deterministic, so retried
// upserts are idempotent.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}
