// Package domain holds the core types of the image similarity search engine:
// embedding documents, search matches and the contracts between layers.
package domain

// Document is one indexed embedding observation. An entity may own many
// documents (one per indexing call); documents are never updated in place.
type Document struct {
	ID       string
	EntityID string
	Vector   []float32
}

// DocumentRef identifies a stored document without carrying its vector.
type DocumentRef struct {
	ID       string
	EntityID string
}

// Candidate is a single scored hit from the vector store, before score
// decoding, threshold filtering and deduplication.
type Candidate struct {
	DocumentID string
	EntityID   string
	// RawScore is on the engine scale (see ScoreCodec).
	RawScore float64
}

// Match is the best-scoring hit for one entity within a search response.
type Match struct {
	EntityID   string
	Similarity float64
	DocumentID string
}
