package models

// Record is a raw review row as loaded from the tabular source.
// Records are the source of truth for documents and are never mutated
// after loading.
type Record struct {
	Title    string
	Body     string
	Rating   float64
	Date     string
	RowIndex int
}

// Metadata travels with a document into the vector store and back out
// of similarity search unchanged.
type Metadata struct {
	Rating    float64
	Date      string
	SourceRow int
}

// Document is the indexed form of a record: one per record, owned by
// the vector store after insertion.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Answer bundles the pieces of one answered question.
type Answer struct {
	Query   string
	Source  string
	Content string
}
