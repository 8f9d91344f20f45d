package chi

import (
	"encoding/base64"
	"errors"
	"strings"
)

// indexRequest is the POST /index body. rig_id is the legacy alias of
// entity_id and loses when both are present.
type indexRequest struct {
	Image    string `json:"image"`
	EntityID string `json:"entity_id"`
	RigID    string `json:"rig_id"`
}

func (r *indexRequest) entityID() string {
	if r.EntityID != "" {
		return r.EntityID
	}
	return r.RigID
}

type indexResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	EntityID        string `json:"entity_id"`
	DocumentID      string `json:"document_id"`
	VectorDimension int    `json:"vector_dimension"`
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Image         string   `json:"image"`
	MinSimilarity *float64 `json:"min_similarity"`
}

type matchItem struct {
	EntityID   string  `json:"entity_id"`
	Similarity float64 `json:"similarity"`
	DocumentID string  `json:"document_id"`
}

// searchResponse keeps the deployed wire names: callers read the match
// array under the legacy rig_ids key.
type searchResponse struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	Count         int         `json:"count"`
	MinSimilarity float64     `json:"min_similarity"`
	Matches       []matchItem `json:"rig_ids"`
}

// deleteRequest is the POST /delete body, with the same legacy alias.
type deleteRequest struct {
	EntityID string `json:"entity_id"`
	RigID    string `json:"rig_id"`
}

func (r *deleteRequest) entityID() string {
	if r.EntityID != "" {
		return r.EntityID
	}
	return r.RigID
}

type deleteResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	TotalFound   int      `json:"total_found"`
	DeletedCount int      `json:"deleted_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// decodeImage turns the wire representation into raw bytes. Clients send
// plain base64 or a full data URL; the prefix up to the comma is ignored.
func decodeImage(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("image is required")
	}
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}
	if len(raw) == 0 {
		return nil, errors.New("image is empty")
	}
	return raw, nil
}
