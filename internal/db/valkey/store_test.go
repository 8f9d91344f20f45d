package valkey

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/imagedex/internal/db"
)

func TestSearchKNN_SortsByRawScore(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// valkey-search may return hits unordered; driver must sort by raw desc.
	// The server honors RETURN, so the score field must be on the list.
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && returnFieldsOf(cmd)["__vector_score"]
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("imagedex:photo:e2_1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.4"), // raw 1.6
				mock.RedisString("entity_id"),
				mock.RedisString("e2"),
			),
			mock.RedisString("imagedex:photo:e1_1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"), // raw 1.9
				mock.RedisString("entity_id"),
				mock.RedisString("e1"),
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "photos-idx",
		Vector:       []float32{0.1},
		K:            10,
		ReturnFields: []string{"entity_id"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Fields["entity_id"] != "e1" {
		t.Errorf("expected best hit first, got %v", result.Entries[0])
	}
}

func TestSearchKNN_MinRawScoreFiltersClientSide(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			// no VECTOR_RANGE on valkey: plain KNN query expected
			return cmd[0] == "FT.SEARCH" && cmd[2] == "*=>[KNN 10 @vector $BLOB]"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("imagedex:photo:e1_1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"), // raw 1.9, kept
			),
			mock.RedisString("imagedex:photo:e2_1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.8"), // raw 1.2, pruned
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:   "photos-idx",
		Vector:      []float32{0.1},
		K:           10,
		MinRawScore: 1.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry after pruning, got %d", len(result.Entries))
	}
	if result.Entries[0].Key != "imagedex:photo:e1_1" {
		t.Errorf("unexpected entry: %v", result.Entries[0])
	}
}

func TestSearchTag_ScanFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("0"),
			mock.RedisArray(
				mock.RedisString("imagedex:photo:e1_1"),
				mock.RedisString("imagedex:photo:e2_1"),
			),
		)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "imagedex:photo:e1_1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"entity_id": mock.RedisString("e1"),
		})))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "imagedex:photo:e2_1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"entity_id": mock.RedisString("e2"),
		})))

	s := NewStoreForTest(c)
	result, err := s.SearchTag(context.Background(), &db.TagQuery{
		IndexName: "imagedex:photo:idx",
		Field:     "entity_id",
		Value:     "e1",
		Limit:     100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("expected exactly e1's document, got %+v", result)
	}
	if result.Entries[0].Key != "imagedex:photo:e1_1" {
		t.Errorf("unexpected key: %s", result.Entries[0].Key)
	}
}

func TestIndexToKeyPrefix(t *testing.T) {
	if got := indexToKeyPrefix("imagedex:photo:idx"); got != "imagedex:photo:" {
		t.Errorf("indexToKeyPrefix = %q", got)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index photos-idx already exists")))

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), photoIndexDef())
	if !errors.Is(err, db.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestIndexExists_Absent(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "photos-idx")).
		Return(mock.Result(mock.RedisError("Index with name 'photos-idx' not found")))

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "photos-idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected index to be absent")
	}
}

// --- helpers ---

func photoIndexDef() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        "photos-idx",
		StorageType: db.StorageHash,
		Prefixes:    []string{"imagedex:photo:"},
		Fields: []db.IndexField{
			{Name: "entity_id", Type: db.IndexFieldTag},
			{
				Name:           "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      512,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
}

// returnFieldsOf extracts the RETURN field list from an FT.SEARCH command.
func returnFieldsOf(cmd []string) map[string]bool {
	fields := map[string]bool{}
	for i, arg := range cmd {
		if arg != "RETURN" || i+1 >= len(cmd) {
			continue
		}
		n, err := strconv.Atoi(cmd[i+1])
		if err != nil {
			continue
		}
		for j := i + 2; j < len(cmd) && j < i+2+n; j++ {
			fields[cmd[j]] = true
		}
	}
	return fields
}
