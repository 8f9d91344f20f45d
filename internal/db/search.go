package db

// KNNQuery is the input for vector similarity search.
//
// Scores reported by drivers are on the offset scale raw = cosine + 1.0
// (range [0, 2]); drivers translate their native distance metric into that
// scale so the layers above see one scoring convention.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string

	// MinRawScore prunes hits below the given raw score at query time.
	// Zero means no pre-filter (raw 0 is cosine -1, which matches everything).
	MinRawScore float64
}

// TagQuery is the input for exact tag-equality retrieval, used to enumerate
// an entity's documents.
type TagQuery struct {
	IndexName    string
	Field        string
	Value        string
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation. Total is the full match
// count reported by the engine, which may exceed len(Entries) when the
// query was bounded.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
