package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/imagedex/internal/db"
)

// SearchKNN runs a vector similarity search via FT.SEARCH.
//
// FT reports cosine distance d in [0, 2]; entries are mapped onto the raw
// offset scale raw = 2 - d = cosine + 1 before being returned, so callers
// see the scoring convention db.KNNQuery documents.
//
// When MinRawScore > 0 the query uses VECTOR_RANGE to prune hits server-side
// (radius = 2 - MinRawScore on the distance scale) and keeps the K closest
// via SORTBY; otherwise it is a plain KNN query.
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

	returnFields := ensureScoreField(q.ReturnFields)

	var args []string
	if q.MinRawScore > 0 {
		radius := 2.0 - q.MinRawScore
		queryStr := "@vector:[VECTOR_RANGE $RADIUS $BLOB]=>{$YIELD_DISTANCE_AS: __vector_score}"
		args = []string{q.IndexName, queryStr}
		args = appendReturnFields(args, returnFields)
		args = append(args,
			"SORTBY", "__vector_score",
			"LIMIT", "0", strconv.Itoa(q.K),
			"PARAMS", "4",
			"RADIUS", strconv.FormatFloat(radius, 'f', -1, 64),
			"BLOB", db.EncodeVector(q.Vector),
			"DIALECT", "2",
		)
	} else {
		queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", q.K)
		args = []string{q.IndexName, queryStr}
		args = appendReturnFields(args, returnFields)
		args = append(args,
			"SORTBY", "__vector_score",
			"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
			"DIALECT", "2",
		)
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw, true)
}

// SearchTag returns documents whose tag field equals the given value,
// bounded by Limit.
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

	queryStr := fmt.Sprintf("@%s:{%s}", q.Field, tagEscaper.Replace(q.Value))

	args := []string{q.IndexName, queryStr}
	args = appendReturnFields(args, q.ReturnFields)
	args = append(args, "LIMIT", "0", strconv.Itoa(limit), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw, false)
}

func appendReturnFields(args, fields []string) []string {
	if len(fields) == 0 {
		return args
	}
	args = append(args, "RETURN", strconv.Itoa(len(fields)))
	return append(args, fields...)
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

// parseSearchResult parses the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...].
func parseSearchResult(raw []rueidis.RedisMessage, scored bool) (*db.SearchResult, error) {
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

		if scored {
			if scoreStr, ok := entry.Fields["__vector_score"]; ok {
				if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
					entry.Score = distanceToRaw(d)
				}
				delete(entry.Fields, "__vector_score")
			}
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// distanceToRaw maps FT cosine distance onto the offset raw scale,
// clamped to [0, 2] against float drift.
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

// tagEscaper escapes characters with query syntax meaning inside TAG values.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
