package indexer

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/require"

	"review-rag/internal/chromemdb"
)

func toyEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := []float32{float32(len(text)), 1}
		norm := float32(math.Sqrt(float64(vec[0]*vec[0] + vec[1]*vec[1])))
		return []float32{vec[0] / norm, vec[1] / norm}, nil
	}
}

// Indexing twice against the same store location must leave the entry
// count unchanged: the second run is a no-op under skip-if-exists.
func TestIndex_IdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reviews-store")
	records := sampleRecords()

	first, err := chromemdb.New(path, "reviews_test", false, "", toyEmbedding())
	require.NoError(t, err)
	require.NoError(t, New(first, PolicySkipIfExists).Index(ctx, records))

	n, err := first.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, len(records), n)

	second, err := chromemdb.New(path, "reviews_test", false, "", toyEmbedding())
	require.NoError(t, err)
	require.NoError(t, New(second, PolicySkipIfExists).Index(ctx, records))

	n, err = second.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, len(records), n, "second run must not add entries")
}
