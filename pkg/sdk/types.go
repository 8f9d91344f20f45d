package imagedex

// Match is one search hit: the best-scoring document of an entity.
type Match struct {
	EntityID   string
	Similarity float64
	DocumentID string
}

// IndexReceipt describes a successful Index call.
type IndexReceipt struct {
	DocumentID string
	Dimension  int
}

// DeletionReport accounts for one DeleteEntity call.
type DeletionReport struct {
	TotalFound int
	Deleted    int
	Failed     int
	Errors     []string
}

// Health reports component availability.
type Health struct {
	Healthy bool
	Checks  map[string]string
}
