package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"review-rag/internal/config"
	"review-rag/internal/models"
	"review-rag/internal/ragerror"
)

// ReviewDoc is the pgvector row form of an indexed review.
type ReviewDoc struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`
	ID            int64     `bun:"id,pk,autoincrement"`
	DocID         string    `bun:"doc_id,notnull,unique"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Rating        float64   `bun:"rating"`
	ReviewDate    string    `bun:"review_date"`
	SourceRow     int       `bun:"source_row"`
}

// Store is the optional Postgres/pgvector review store. It holds the
// embedder itself because the SQL path needs explicit query vectors.
type Store struct {
	db       *bun.DB
	embedder *embeddings.EmbedderImpl
}

func Connect(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func New(sqldb *sql.DB, debug bool, embedder *embeddings.EmbedderImpl) *Store {
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: bdb, embedder: embedder}
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*ReviewDoc)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "db.Init", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Exists reports whether the reviews table is present and populated,
// the closest analog of the storage-location check.
func (s *Store) Exists() bool {
	n, err := s.db.NewSelect().Model((*ReviewDoc)(nil)).Count(context.Background())
	return err == nil && n > 0
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*ReviewDoc)(nil)).IfExists().Exec(ctx); err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "db.Reset", err)
	}
	return s.Init(ctx)
}

// Insert embeds each document and writes all rows in one batch insert.
func (s *Store) Insert(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]ReviewDoc, len(docs))
	for i, d := range docs {
		emb, err := s.embedder.EmbedQuery(ctx, d.Content)
		if err != nil {
			return ragerror.New(ragerror.KindStoreUnavailable, "db.Insert", err).
				With("doc_id", d.ID)
		}
		rows[i] = ReviewDoc{
			DocID:      d.ID,
			Content:    d.Content,
			Embedding:  emb,
			Rating:     d.Metadata.Rating,
			ReviewDate: d.Metadata.Date,
			SourceRow:  d.Metadata.SourceRow,
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return ragerror.New(ragerror.KindStoreUnavailable, "db.Insert", err).
			With("documents", len(docs))
	}
	return nil
}

// Persist is a no-op: rows are durable once the insert commits.
func (s *Store) Persist() error { return nil }

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*ReviewDoc)(nil)).Count(ctx)
	if err != nil {
		return 0, ragerror.New(ragerror.KindStoreUnavailable, "db.Count", err)
	}
	return n, nil
}

// Search orders rows by pgvector distance to the embedded query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.Document, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, ragerror.New(ragerror.KindStoreUnavailable, "db.Search", err)
	}

	var rows []ReviewDoc
	err = s.db.NewSelect().
		Model(&rows).
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, ragerror.New(ragerror.KindStoreUnavailable, "db.Search", err)
	}

	docs := make([]models.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, models.Document{
			ID:      r.DocID,
			Content: r.Content,
			Metadata: models.Metadata{
				Rating:    r.Rating,
				Date:      r.ReviewDate,
				SourceRow: r.SourceRow,
			},
		})
	}
	return docs, nil
}
