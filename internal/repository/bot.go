package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/botwise/internal/domain"
)

type BotRepository struct {
	pool *pgxpool.Pool
}

func NewBotRepository(pool *pgxpool.Pool) *BotRepository {
	return &BotRepository{pool: pool}
}

func (r *BotRepository) Create(ctx context.Context, bot *domain.Bot) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bots (id, org_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		bot.ID, bot.OrgID, bot.Name, bot.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrBotAlreadyExists
		}
		return err
	}
	return nil
}

func (r *BotRepository) GetByID(ctx context.Context, id string) (*domain.Bot, error) {
	var bot domain.Bot
	err := r.pool.QueryRow(ctx,
		`SELECT id, org_id, name, created_at FROM bots WHERE id = $1`,
		id,
	).Scan(&bot.ID, &bot.OrgID, &bot.Name, &bot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBotNotFound
		}
		return nil, err
	}
	return &bot, nil
}

func (r *BotRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Bot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, name, created_at FROM bots WHERE org_id = $1 ORDER BY created_at DESC`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*domain.Bot
	for rows.Next() {
		var bot domain.Bot
		if err := rows.Scan(&bot.ID, &bot.OrgID, &bot.Name, &bot.CreatedAt); err != nil {
			return nil, err
		}
		bots = append(bots, &bot)
	}
	return bots, rows.Err()
}

func (r *BotRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM bots WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrBotNotFound
	}
	return nil
}
