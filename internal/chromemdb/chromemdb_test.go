package chromemdb

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/require"

	"review-rag/internal/models"
)

// testEmbedding is a deterministic toy embedding: keyword counts plus a
// bias dimension, unit-normalized so cosine similarity behaves.
func testEmbedding() chromem.EmbeddingFunc {
	keywords := []string{"crust", "service", "wait"}
	return func(_ context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		vec := make([]float32, len(keywords)+1)
		for i, kw := range keywords {
			vec[i] = float32(strings.Count(lower, kw))
		}
		vec[len(keywords)] = 0.5
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}

func newInMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", "reviews_test", true, "", testEmbedding())
	require.NoError(t, err)
	return s
}

func TestStore_EmptySearchReturnsNothing(t *testing.T) {
	s := newInMemoryStore(t)

	docs, err := s.Search(context.Background(), "how is the crust?", 5)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestStore_MetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newInMemoryStore(t)

	want := models.Document{
		ID:      "7",
		Content: "Great Pizza Loved the crust",
		Metadata: models.Metadata{
			Rating:    4,
			Date:      "2024-01-01",
			SourceRow: 7,
		},
	}
	require.NoError(t, s.Insert(ctx, []models.Document{want}))

	got, err := s.Search(ctx, "how is the crust?", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want.ID, got[0].ID)
	require.Equal(t, want.Content, got[0].Content)
	require.Equal(t, want.Metadata, got[0].Metadata)
}

func TestStore_SearchRanksByNearness(t *testing.T) {
	ctx := context.Background()
	s := newInMemoryStore(t)

	require.NoError(t, s.Insert(ctx, []models.Document{
		{ID: "0", Content: "Great Pizza Loved the crust"},
		{ID: "1", Content: "Terrible service and a long wait"},
	}))

	got, err := s.Search(ctx, "how is the crust?", 5)
	require.NoError(t, err)
	require.Len(t, got, 2, "k larger than the collection clamps, not errors")
	require.Equal(t, "0", got[0].ID)
}

func TestStore_CountAndReset(t *testing.T) {
	ctx := context.Background()
	s := newInMemoryStore(t)

	require.NoError(t, s.Insert(ctx, []models.Document{
		{ID: "0", Content: "one"},
		{ID: "1", Content: "two"},
	}))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, s.Reset(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestStore_InsertEmptyBatchIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newInMemoryStore(t)

	require.NoError(t, s.Insert(ctx, nil))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory-store")

	first, err := New(path, "reviews_test", true, "sw0rdfish", testEmbedding())
	require.NoError(t, err)
	require.False(t, first.Exists(), "no export yet, nothing counts as existing")

	want := models.Document{
		ID:      "7",
		Content: "Great Pizza Loved the crust",
		Metadata: models.Metadata{
			Rating:    4,
			Date:      "2024-01-01",
			SourceRow: 7,
		},
	}
	require.NoError(t, first.Insert(ctx, []models.Document{want}))
	require.NoError(t, first.Persist())

	second, err := New(path, "reviews_test", true, "sw0rdfish", testEmbedding())
	require.NoError(t, err)
	require.True(t, second.Exists(), "the export file is the storage location")
	require.NoError(t, second.Import(ctx))

	n, err := second.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := second.Search(ctx, "how is the crust?", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want.ID, got[0].ID)
	require.Equal(t, want.Content, got[0].Content)
	require.Equal(t, want.Metadata, got[0].Metadata)
}

func TestStore_ExistsReflectsPriorLocation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reviews-store")

	first, err := New(path, "reviews_test", false, "", testEmbedding())
	require.NoError(t, err)
	require.False(t, first.Exists(), "fresh location must not count as existing")

	require.NoError(t, first.Insert(ctx, []models.Document{
		{ID: "0", Content: "Great Pizza Loved the crust"},
	}))
	require.NoError(t, first.Persist())

	second, err := New(path, "reviews_test", false, "", testEmbedding())
	require.NoError(t, err)
	require.True(t, second.Exists())

	n, err := second.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n, "persisted documents survive a reopen")
}
