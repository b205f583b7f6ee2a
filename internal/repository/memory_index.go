package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"promptly/internal/domain"
)

// MemoryIndex es el almacen vectorial de memoria a largo plazo, indexado por
// id de mensaje. DeleteMany nunca propaga fallos parciales: solo los registra.
type MemoryIndex interface {
	Upsert(ctx context.Context, entry domain.MemoryEntry) error
	Query(ctx context.Context, embedding []float32, topK int, userID string) ([]domain.MemoryMatch, error)
	DeleteMany(ctx context.Context, messageIDs []string)
}

// PgMemoryIndex implementa MemoryIndex sobre pgvector.
type PgMemoryIndex struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgMemoryIndex(pool *pgxpool.Pool, logger *zap.Logger) *PgMemoryIndex {
	return &PgMemoryIndex{pool: pool, logger: logger}
}

func (r *PgMemoryIndex) Upsert(ctx context.Context, entry domain.MemoryEntry) error {
	const query = `
		INSERT INTO memory_entries (message_id, chat_id, user_id, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id) DO UPDATE
		SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
	`
	_, err := r.pool.Exec(ctx, query,
		entry.MessageID,
		entry.ChatID,
		entry.UserID,
		entry.Text,
		pgvector.NewVector(entry.Embedding),
	)
	return err
}

func (r *PgMemoryIndex) Query(ctx context.Context, embedding []float32, topK int, userID string) ([]domain.MemoryMatch, error) {
	if topK <= 0 {
		topK = 3
	}
	// Distancia coseno; el score reportado es 1 - distancia.
	const query = `
		SELECT message_id, chat_id, user_id, content, embedding <=> $1 AS distance
		FROM memory_entries
		WHERE user_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), userID, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.MemoryMatch
	for rows.Next() {
		var m domain.MemoryMatch
		var distance float64
		if err := rows.Scan(
			&m.MessageID,
			&m.ChatID,
			&m.UserID,
			&m.Text,
			&distance,
		); err != nil {
			return nil, err
		}
		m.Score = 1 - distance
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *PgMemoryIndex) DeleteMany(ctx context.Context, messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}
	const query = `
		DELETE FROM memory_entries WHERE message_id = ANY($1)
	`
	if _, err := r.pool.Exec(ctx, query, messageIDs); err != nil {
		if r.logger != nil {
			r.logger.Warn("delete memory entries failed",
				zap.Error(err),
				zap.Int("count", len(messageIDs)),
			)
		}
	}
}
