// Package types provides shared type definitions for the docindex pipeline.
//
// This package defines the domain types used across multiple components of
// the indexing pipeline: documents, embedded records, work items, and run
// results.
//
// # Core Types
//
// Document represents one unit of extractable text, either a source file or
// a single archive entry:
//
//	doc := types.Document{
//	    Source: "handbook.zip",
//	    Text:   entryText,
//	    Metadata: map[string]string{
//	        "source":   "handbook.zip",
//	        "filename": "chapters/ch01.txt",
//	    },
//	}
//
// Record is one embedded chunk ready for the vector store:
//
//	rec := types.Record{
//	    ID:       chunkID,
//	    Vector:   embedding,
//	    Text:     chunkText,
//	    Metadata: doc.Metadata,
//	}
//
// WorkItem is the unit of distributable work: either a list of regular
// files or a slice of one archive's entries. Validate rejects malformed
// descriptors before dispatch.
//
// # Run Results
//
// Result aggregates the outcome of one reindex run and renders the
// human-readable summary returned to the caller:
//
//	res := types.Result{Chunks: 1204, Files: 4}
//	fmt.Println(res.Summary()) // "Indexed 1,204 chunks from 4 file(s)."
package types
