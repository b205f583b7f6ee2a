package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"promptly/internal/domain"
)

// ChatRepository define el contrato de persistencia para chats.
type ChatRepository interface {
	Create(ctx context.Context, chat domain.Chat) error
	GetByID(ctx context.Context, id string) (domain.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Chat, error)
	TouchLastActivity(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// PgChatRepository implementa ChatRepository usando pgxpool.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) Create(ctx context.Context, chat domain.Chat) error {
	const query = `
		INSERT INTO chats (id, user_id, title, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		chat.ID,
		chat.UserID,
		chat.Title,
		chat.LastActivity,
		chat.CreatedAt,
	)
	return err
}

func (r *PgChatRepository) GetByID(ctx context.Context, id string) (domain.Chat, error) {
	const query = `
		SELECT id, user_id, title, last_activity, created_at
		FROM chats
		WHERE id = $1
	`
	var ch domain.Chat
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ch.ID,
		&ch.UserID,
		&ch.Title,
		&ch.LastActivity,
		&ch.CreatedAt,
	)
	return ch, err
}

func (r *PgChatRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Chat, error) {
	const query = `
		SELECT id, user_id, title, last_activity, created_at
		FROM chats
		WHERE user_id = $1
		ORDER BY last_activity DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var ch domain.Chat
		if err := rows.Scan(
			&ch.ID,
			&ch.UserID,
			&ch.Title,
			&ch.LastActivity,
			&ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		chats = append(chats, ch)
	}
	return chats, rows.Err()
}

func (r *PgChatRepository) TouchLastActivity(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE chats SET last_activity = $2 WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *PgChatRepository) Delete(ctx context.Context, id string) error {
	const query = `
		DELETE FROM chats WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
