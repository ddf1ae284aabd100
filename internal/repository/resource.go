package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/pagination"
	"github.com/cloo-solutions/botwise/internal/service"
)

type ResourceRepository struct {
	db dbtx
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: pool}
}

func NewResourceRepositoryWithTx(tx pgx.Tx) *ResourceRepository {
	return &ResourceRepository{db: tx}
}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO resources (id, bot_id, name, kind, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.BotID, res.Name, res.Kind, res.Status, res.CreatedAt, res.UpdatedAt,
	)
	return err
}

func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	var res domain.Resource
	err := r.db.QueryRow(ctx,
		`SELECT id, bot_id, name, kind, status, created_at, updated_at
		 FROM resources WHERE id = $1`,
		id,
	).Scan(&res.ID, &res.BotID, &res.Name, &res.Kind, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepository) ListByBotWithCursor(ctx context.Context, botID string, cursor *pagination.Cursor, limit int) (*service.ResourcePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, bot_id, name, kind, status, created_at, updated_at
			 FROM resources
			 WHERE bot_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			botID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, bot_id, name, kind, status, created_at, updated_at
			 FROM resources
			 WHERE bot_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			botID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.BotID, &res.Name, &res.Kind, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.ResourcePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *ResourceRepository) UpdateStatus(ctx context.Context, id string, status domain.ResourceStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE resources SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM resources WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}
