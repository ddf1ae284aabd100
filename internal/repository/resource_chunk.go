package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/retrieval"
)

// ChunkRepository handles persistence of resource chunks and their embeddings.
// It also implements retrieval.CandidateStore.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a resource and inserts new ones.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, resourceID string, chunks []domain.ResourceChunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM resource_chunks WHERE resource_id = $1`, resourceID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		var embedding any
		if len(c.Embedding) > 0 {
			embedding = pgvector.NewVector(c.Embedding)
		}

		_, err := r.db.Exec(ctx,
			`INSERT INTO resource_chunks (id, resource_id, chunk_index, content, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.ResourceID, c.ChunkIndex, c.Content, embedding, createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *ChunkRepository) ListByResource(ctx context.Context, resourceID string) ([]*domain.ResourceChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, resource_id, chunk_index, content, embedding, created_at
		 FROM resource_chunks
		 WHERE resource_id = $1
		 ORDER BY chunk_index ASC`,
		resourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.ResourceChunk
	for rows.Next() {
		var c domain.ResourceChunk
		var embedding *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.ResourceID, &c.ChunkIndex, &c.Content, &embedding, &c.CreatedAt); err != nil {
			return nil, err
		}
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE resource_chunks SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), chunkID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

// TopCandidates returns the closest embedded chunks for a bot, scored as
// 1 - cosine distance and ordered best first. Chunks of pending or failed
// resources are excluded; they have no trustworthy embedding yet.
func (r *ChunkRepository) TopCandidates(ctx context.Context, embedding []float32, botID string, limit int) ([]retrieval.Candidate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT rc.id, rc.resource_id, rc.content, 1 - (rc.embedding <=> $1) AS similarity
		 FROM resource_chunks rc
		 INNER JOIN resources res ON res.id = rc.resource_id
		 WHERE res.bot_id = $2
		   AND res.status = $3
		   AND rc.embedding IS NOT NULL
		 ORDER BY rc.embedding <=> $1 ASC
		 LIMIT $4`,
		pgvector.NewVector(embedding), botID, domain.ResourceStatusReady, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []retrieval.Candidate
	for rows.Next() {
		var c retrieval.Candidate
		if err := rows.Scan(&c.ChunkID, &c.ResourceID, &c.Content, &c.Similarity); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
