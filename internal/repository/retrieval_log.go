package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/botwise/internal/service"
)

// RetrievalLogRepository stores one row per retrieval request for evaluation
// and debugging.
type RetrievalLogRepository struct {
	pool *pgxpool.Pool
}

func NewRetrievalLogRepository(pool *pgxpool.Pool) *RetrievalLogRepository {
	return &RetrievalLogRepository{pool: pool}
}

func (r *RetrievalLogRepository) Insert(ctx context.Context, entry *service.RetrievalLogEntry) error {
	var reason *string
	if entry.Reason != "" {
		reason = &entry.Reason
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO retrieval_logs (id, bot_id, query, found, reason, similarity, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.BotID, entry.Query, entry.Found, reason, entry.Similarity, entry.DurationMs, entry.CreatedAt,
	)
	return err
}
