package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/telemetry"
)

// Embedder generates embedding vectors for text content
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingService embeds resource chunks so they become searchable
type EmbeddingService struct {
	resourceRepo ResourceRepositoryInterface
	chunkRepo    ChunkRepositoryInterface
	embedder     Embedder
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(
	resourceRepo ResourceRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	embedder Embedder,
) *EmbeddingService {
	return &EmbeddingService{
		resourceRepo: resourceRepo,
		chunkRepo:    chunkRepo,
		embedder:     embedder,
	}
}

// GenerateResourceEmbeddings embeds every chunk of a resource and flips the
// resource to ready. Chunks that already carry an embedding are skipped, so a
// retried job resumes where the previous attempt stopped.
func (s *EmbeddingService) GenerateResourceEmbeddings(ctx context.Context, resourceID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.GenerateResourceEmbeddings", telemetry.SpanAttributes{
		ResourceID: resourceID,
		Operation:  "generate_embeddings",
	})
	defer span.End()

	if resourceID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "resource ID is required")
	}

	if _, err := s.resourceRepo.GetByID(ctx, resourceID); err != nil {
		span.SetError(err)
		return err
	}

	chunks, err := s.chunkRepo.ListByResource(ctx, resourceID)
	if err != nil {
		span.SetError(err)
		return err
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) > 0 {
			continue
		}

		embedding, err := s.embedder.GenerateEmbedding(ctx, chunk.Content)
		if err != nil {
			span.SetError(err)
			return fmt.Errorf("embed chunk %d of resource %s: %w", chunk.ChunkIndex, resourceID, err)
		}

		if err := s.chunkRepo.UpdateEmbedding(ctx, chunk.ID, embedding); err != nil {
			span.SetError(err)
			return err
		}
	}

	if err := s.resourceRepo.UpdateStatus(ctx, resourceID, domain.ResourceStatusReady); err != nil {
		span.SetError(err)
		return err
	}

	return nil
}

// MarkResourceFailed flips a resource to failed after embedding gave up
func (s *EmbeddingService) MarkResourceFailed(ctx context.Context, resourceID string) error {
	return s.resourceRepo.UpdateStatus(ctx, resourceID, domain.ResourceStatusFailed)
}
