package ragerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindStoreUnavailable, "db.Search", cause).With("collection", "reviews")

	require.Contains(t, err.Error(), "db.Search")
	require.Contains(t, err.Error(), "store_unavailable")
	require.Contains(t, err.Error(), "collection=reviews")
	require.Contains(t, err.Error(), "connection refused")
	require.ErrorIs(t, err, cause)
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	inner := New(KindSchema, "parser.Load", errors.New("missing columns")).
		With("missing", []string{"Date"})
	wrapped := fmt.Errorf("loading source: %w", inner)

	require.Equal(t, KindSchema, KindOf(wrapped))
	require.Equal(t, []string{"Date"}, FieldsOf(wrapped)["missing"])
}

func TestKindOf_PlainError(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	require.Nil(t, FieldsOf(errors.New("plain")))
}

func TestKindStrings(t *testing.T) {
	require.Equal(t, "source_not_found", KindSourceNotFound.String())
	require.Equal(t, "generation", KindGeneration.String())
	require.Equal(t, "pipeline", KindPipeline.String())
	require.Equal(t, "unknown", Kind(99).String())
}
