package chromemdb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"review-rag/internal/models"
	"review-rag/internal/ragerror"
)

const compress = false

// Store is the default review vector store, backed by a persistent
// chromem-go database on disk.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	path       string
	inMemory   bool

	// existedBefore captures whether the storage location was already
	// present before opening; opening a persistent DB creates the
	// directory, so the check cannot happen later.
	existedBefore bool

	embed         chromem.EmbeddingFunc
	encryptionKey string
	exportPath    string
}

// New opens (or creates) the store at path. With inMemory set, documents
// live in RAM and durability comes from the encrypted export: Persist
// writes the collection to <path>/<collection>.chromem and Import loads a
// previous export back.
func New(path, collectionName string, inMemory bool, encryptionKey string, embed chromem.EmbeddingFunc) (*Store, error) {
	var db *chromem.DB
	var err error
	existed := false

	if inMemory {
		db = chromem.NewDB()
		if path != "" {
			if _, statErr := os.Stat(filepath.Join(path, collectionName+".chromem")); statErr == nil {
				existed = true
			}
			if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
				return nil, ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.New", mkErr).
					With("path", path)
			}
		}
	} else {
		if _, statErr := os.Stat(path); statErr == nil {
			existed = true
		}
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.New", err).
				With("path", path)
		}
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.New", err).
			With("collection", collectionName)
	}

	return &Store{
		db:            db,
		collection:    c,
		name:          collectionName,
		path:          path,
		inMemory:      inMemory,
		existedBefore: existed,
		embed:         embed,
		encryptionKey: encryptionKey,
		exportPath:    filepath.Join(path, collectionName+".chromem"),
	}, nil
}

// Exists reports whether the storage location (the database directory, or
// the export file for the in-memory variant) was present before this
// process opened it. Used as the coarse skip-if-exists indexing guard.
func (s *Store) Exists() bool {
	return s.existedBefore
}

// Reset drops and recreates the collection.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Reset", err).
			With("collection", s.name)
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, s.embed)
	if err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Reset", err).
			With("collection", s.name)
	}
	s.collection = c
	return nil
}

// Insert embeds and stores all documents in one batch.
func (s *Store) Insert(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: encodeMetadata(d.Metadata),
		})
	}
	if err := s.collection.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Insert", err).
			With("collection", s.name).
			With("documents", len(docs))
	}
	return nil
}

// Persist flushes the collection to durable storage. The persistent backend
// writes documents as they are added, so only the in-memory variant has
// work to do here: an encrypted export of the collection.
func (s *Store) Persist() error {
	if !s.inMemory {
		return nil
	}
	if s.encryptionKey == "" {
		log.Warn().Msg("No encryption key configured, skipping collection export")
		return nil
	}
	log.Debug().Str("file", s.exportPath).Msg("Exporting collection")
	if err := s.db.ExportToFile(s.exportPath, compress, s.encryptionKey, s.name); err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Persist", err).
			With("file", s.exportPath)
	}
	return nil
}

// Import loads a previously exported collection from disk.
func (s *Store) Import(ctx context.Context) error {
	if err := s.db.ImportFromFile(s.exportPath, s.encryptionKey); err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Import", err).
			With("file", s.exportPath)
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, s.embed)
	if err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Import", err).
			With("collection", s.name)
	}
	s.collection = c
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Search returns up to k documents nearest to the query, nearest first.
// An empty store yields an empty result, never an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.Document, error) {
	n := s.collection.Count()
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}
	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, ragerror.New(ragerror.KindStoreUnavailable, "chromemdb.Search", err).
			With("collection", s.name)
	}
	docs := make([]models.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, models.Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: decodeMetadata(r.Metadata),
		})
	}
	return docs, nil
}

// chromem metadata is a string map, so numeric fields round-trip through
// strconv.

func encodeMetadata(m models.Metadata) map[string]string {
	return map[string]string{
		"rating":     strconv.FormatFloat(m.Rating, 'f', -1, 64),
		"date":       m.Date,
		"source_row": strconv.Itoa(m.SourceRow),
	}
}

func decodeMetadata(m map[string]string) models.Metadata {
	rating, _ := strconv.ParseFloat(m["rating"], 64)
	sourceRow, _ := strconv.Atoi(m["source_row"])
	return models.Metadata{
		Rating:    rating,
		Date:      m["date"],
		SourceRow: sourceRow,
	}
}
