package valkey

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/imagedex/internal/db"
)

// SearchKNN runs a vector similarity search via FT.SEARCH.
//
// valkey-search does not support VECTOR_RANGE queries, so MinRawScore is
// applied client-side after the KNN retrieval; it also does not guarantee
// result ordering, so entries are sorted by raw score here. Scores are
// mapped from cosine distance onto the offset scale raw = 2 - d.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", q.K)

	args := []string{q.IndexName, queryStr}
	if returnFields := ensureScoreField(q.ReturnFields); len(returnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(returnFields)))
		args = append(args, returnFields...)
	}
	args = append(args, "PARAMS", "2", "BLOB", db.EncodeVector(q.Vector), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	result, err := parseKNNResult(raw)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		return result.Entries[i].Score > result.Entries[j].Score
	})

	if q.MinRawScore > 0 {
		filtered := result.Entries[:0]
		for _, e := range result.Entries {
			if e.Score >= q.MinRawScore {
				filtered = append(filtered, e)
			}
		}
		result.Entries = filtered
	}

	return result, nil
}

// SearchTag enumerates documents whose tag field equals the given value.
// valkey-search does not support bare FT.SEARCH without a KNN clause, so
// this falls back to SCAN over the index prefix + HGETALL per key.
func (s *Store) SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" || q.Value == "" {
		return nil, fmt.Errorf("field and value are required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	keys, err := s.scan(ctx, indexToKeyPrefix(q.IndexName)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan for tag search: %w", err)
	}

	sort.Strings(keys) // deterministic ordering

	var total int
	entries := make([]db.SearchEntry, 0, limit)
	for _, key := range keys {
		fields, err := s.HGetAll(ctx, key)
		if err != nil {
			continue // key may have been deleted between SCAN and HGETALL
		}
		if fields[q.Field] != q.Value {
			continue
		}
		total++
		if len(entries) >= limit {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: projectFields(fields, q.ReturnFields),
		})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// ensureScoreField guarantees a RETURN clause still yields the distance:
// the engine replies with only the listed fields, so a projection that
// omits __vector_score would strip every score. No-op without RETURN.
func ensureScoreField(fields []string) []string {
	if len(fields) == 0 {
		return fields
	}
	for _, f := range fields {
		if f == "__vector_score" {
			return fields
		}
	}
	return append(append(make([]string, 0, len(fields)+1), fields...), "__vector_score")
}

// indexToKeyPrefix derives the key prefix from an index name by convention:
// "<prefix>idx" indexes documents stored under "<prefix>".
func indexToKeyPrefix(index string) string {
	return strings.TrimSuffix(index, "idx")
}

func projectFields(fields map[string]string, want []string) map[string]string {
	if len(want) == 0 {
		return fields
	}
	m := make(map[string]string, len(want))
	for _, f := range want {
		if v, ok := fields[f]; ok {
			m[f] = v
		}
	}
	return m
}

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields["__vector_score"]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = distanceToRaw(d)
			}
			delete(entry.Fields, "__vector_score")
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// distanceToRaw maps cosine distance onto the offset raw scale, clamped to [0, 2].
func distanceToRaw(d float64) float64 {
	raw := 2.0 - d
	if raw < 0 {
		return 0
	}
	if raw > 2 {
		return 2
	}
	return raw
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
