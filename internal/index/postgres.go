// ABOUTME: pgvector-backed index for the reference corpus, searched with cosine distance
// ABOUTME: Over-fetches by ANN order then re-ranks client side so boost applies before the floor
package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"clauselens/internal/models"
)

const corpusTable = "corpus_chunks"

// overFetchFactor widens the ANN fetch window so boost and floor are applied
// to a pool larger than TopK. The re-rank is exact within the fetched pool.
const overFetchFactor = 4

const minFetch = 50

// PostgresIndex stores chunks in a pgvector table and searches them with the
// cosine distance operator.
type PostgresIndex struct {
	pool      *pgxpool.Pool
	dimension int
}

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return pool, nil
}

// NewPostgresIndex wraps an existing pool. Non-positive dimensions fall back
// to DefaultDimension.
func NewPostgresIndex(pool *pgxpool.Pool, dimension int) *PostgresIndex {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &PostgresIndex{pool: pool, dimension: dimension}
}

// EnsureSchema creates the pgvector extension, the chunk table, and its
// indices if they do not exist yet.
func (p *PostgresIndex) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create pgvector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id TEXT PRIMARY KEY,
            document_id TEXT NOT NULL,
            clause_id TEXT NOT NULL DEFAULT '',
            article_number INTEGER NOT NULL DEFAULT 0,
            paragraph_index INTEGER,
            chunk_type TEXT NOT NULL,
            source_type TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            content TEXT NOT NULL,
            start_offset INTEGER NOT NULL DEFAULT 0,
            end_offset INTEGER NOT NULL DEFAULT 0,
            metadata JSONB,
            embedding vector(%d) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `, corpusTable, p.dimension)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s table: %w", corpusTable, err)
	}

	if _, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`, corpusTable)); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	if _, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %[1]s_document_idx ON %[1]s (document_id);
		CREATE INDEX IF NOT EXISTS %[1]s_source_type_idx ON %[1]s (source_type);
	`, corpusTable)); err != nil {
		return fmt.Errorf("failed to create filter indices: %w", err)
	}

	return nil
}

// Upsert replaces a document's chunks inside one transaction, so concurrent
// readers see either the previous set or the new one.
func (p *PostgresIndex) Upsert(ctx context.Context, documentID string, chunks []models.Chunk) error {
	if documentID == "" {
		return fmt.Errorf("corpus index: document id required")
	}
	for _, ch := range chunks {
		if len(ch.Embedding) != p.dimension {
			return fmt.Errorf("chunk %s has dimension %d, index expects %d: %w",
				ch.ID, len(ch.Embedding), p.dimension, ErrDimensionMismatch)
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, corpusTable), documentID); err != nil {
		return fmt.Errorf("failed to clear document %s: %w", documentID, err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (
			id, document_id, clause_id, article_number, paragraph_index,
			chunk_type, source_type, title, content,
			start_offset, end_offset, metadata, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::vector)
	`, corpusTable)
	for _, ch := range chunks {
		if _, err := tx.Exec(ctx, insert,
			ch.ID, documentID, ch.ClauseID, ch.ArticleNumber, ch.ParagraphIndex,
			string(ch.Type), string(ch.SourceType), ch.Title, ch.Content,
			ch.StartOffset, ch.EndOffset, ch.Metadata, formatVector(ch.Embedding),
		); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert for %s: %w", documentID, err)
	}
	return nil
}

// Search fetches the nearest chunks by cosine distance and re-ranks them with
// the shared boost, floor, and ordering rules.
func (p *PostgresIndex) Search(ctx context.Context, q Query) ([]models.SearchResult, error) {
	if len(q.Vector) != p.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, index expects %d: %w",
			len(q.Vector), p.dimension, ErrDimensionMismatch)
	}

	fetch := q.TopK * overFetchFactor
	if fetch < minFetch {
		fetch = minFetch
	}

	vec := formatVector(q.Vector)
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(
		"id", "document_id", "clause_id", "article_number",
		"source_type", "title", "content", "embedding::text",
	).
		Column(sq.Expr("1 - (embedding <=> ?::vector) AS similarity", vec)).
		From(corpusTable)

	for _, key := range sortedFilterKeys(q.Filters) {
		value := q.Filters[key]
		switch key {
		case "document_id", "clause_id", "source_type":
			builder = builder.Where(sq.Eq{key: value})
		case "type":
			builder = builder.Where(sq.Eq{"chunk_type": value})
		case "article_number":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("article_number filter %q is not a number: %w", value, err)
			}
			builder = builder.Where(sq.Eq{"article_number": n})
		default:
			builder = builder.Where(sq.Expr("metadata->>? = ?", key, value))
		}
	}

	builder = builder.
		OrderByClause("embedding <=> ?::vector", vec).
		Limit(uint64(fetch))

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build corpus query: %w", err)
	}

	rows, err := p.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query corpus chunks: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var candidates []models.SearchResult
	for rows.Next() {
		var (
			r          models.SearchResult
			sourceType string
			embText    string
		)
		if err := rows.Scan(
			&r.ChunkID, &r.DocumentID, &r.ClauseID, &r.ArticleNumber,
			&sourceType, &r.Title, &r.Content, &embText, &r.Similarity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan corpus chunk: %w", err)
		}
		r.SourceType = models.SourceType(sourceType)
		r.Embedding, err = parseVector(embText)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", r.ChunkID, err)
		}
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate corpus chunks: %v", ErrUnavailable, err)
	}

	return rank(candidates, q), nil
}

// DeleteDocument removes every chunk stored for a document.
func (p *PostgresIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := p.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, corpusTable), documentID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

// Count reports the number of stored chunks.
func (p *PostgresIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, corpusTable)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// formatVector renders an embedding as a pgvector literal.
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(embedding))
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector reads a pgvector text literal back into a slice.
func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedding component %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func sortedFilterKeys(filters map[string]string) []string {
	if len(filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
