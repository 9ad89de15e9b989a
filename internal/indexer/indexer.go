package indexer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"review-rag/internal/helper"
	"review-rag/internal/models"
)

// Policy decides what happens when the store location is already populated.
type Policy string

const (
	// PolicySkipIfExists makes the whole run a no-op when the storage
	// location already exists. This is a coarse presence check, not a
	// content-hash dedup: a stale-but-present store will not pick up new
	// or changed records.
	PolicySkipIfExists Policy = "skip-if-exists"

	// PolicyRebuild drops the collection and indexes everything fresh.
	PolicyRebuild Policy = "rebuild"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySkipIfExists, PolicyRebuild:
		return Policy(s), nil
	case "":
		return PolicySkipIfExists, nil
	default:
		return "", fmt.Errorf("unknown reindex policy: %q", s)
	}
}

// Store is the write side of the vector store.
type Store interface {
	Exists() bool
	Reset(ctx context.Context) error
	Insert(ctx context.Context, docs []models.Document) error
	Persist() error
}

type Indexer struct {
	store  Store
	policy Policy
}

func New(store Store, policy Policy) *Indexer {
	if policy == "" {
		policy = PolicySkipIfExists
	}
	return &Indexer{store: store, policy: policy}
}

// BuildDocuments derives one document per record, in input order.
func BuildDocuments(records []models.Record) []models.Document {
	docs := make([]models.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, models.Document{
			ID:      strconv.Itoa(rec.RowIndex),
			Content: strings.TrimSpace(rec.Title + " " + rec.Body),
			Metadata: models.Metadata{
				Rating:    rec.Rating,
				Date:      rec.Date,
				SourceRow: rec.RowIndex,
			},
		})
	}
	return docs
}

// Index writes all records into the store under the configured policy.
// Any failure aborts the run; there is no partial silent success.
func (ix *Indexer) Index(ctx context.Context, records []models.Record) error {
	runID, err := helper.GenerateUUID()
	if err != nil {
		runID = "unknown"
	}
	logger := log.With().Str("run_id", runID).Logger()

	switch ix.policy {
	case PolicyRebuild:
		logger.Info().Msg("Rebuilding store")
		if err := ix.store.Reset(ctx); err != nil {
			return err
		}
	default:
		if ix.store.Exists() {
			logger.Info().Msg("Store location already exists, skipping indexing")
			return nil
		}
	}

	docs := BuildDocuments(records)
	if err := ix.store.Insert(ctx, docs); err != nil {
		return err
	}
	if err := ix.store.Persist(); err != nil {
		return err
	}
	logger.Info().Int("documents", len(docs)).Msg("Indexed records")
	return nil
}
