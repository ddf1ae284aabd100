package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/pagination"
	"github.com/cloo-solutions/botwise/internal/telemetry"
)

// ResourceRepositoryInterface defines the repository interface for resource persistence
type ResourceRepositoryInterface interface {
	Create(ctx context.Context, r *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	ListByBotWithCursor(ctx context.Context, botID string, cursor *pagination.Cursor, limit int) (*ResourcePageResult, error)
	UpdateStatus(ctx context.Context, id string, status domain.ResourceStatus) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepositoryInterface defines the repository interface for chunk persistence
type ChunkRepositoryInterface interface {
	ReplaceChunks(ctx context.Context, resourceID string, chunks []domain.ResourceChunk) error
	ListByResource(ctx context.Context, resourceID string) ([]*domain.ResourceChunk, error)
	UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

// EmbeddingJobRepositoryInterface defines the repository interface for embedding job persistence
type EmbeddingJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.EmbeddingJob) error
}

type ResourcePageResult struct {
	Items      []*domain.Resource
	NextCursor string
	HasMore    bool
}

// CreateResourceInput carries a pre-chunked resource. Chunking happens in the
// upstream ingestion pipeline; this service stores segments as given.
type CreateResourceInput struct {
	BotID  string
	Name   string
	Kind   domain.ResourceKind
	Chunks []string
}

type ListResourcesInput struct {
	BotID  string
	Cursor string
	Limit  int
}

type ListResourcesOutput struct {
	Items   []*domain.Resource
	Cursor  string
	HasMore bool
}

// ResourceService handles business logic for bot resources
type ResourceService struct {
	resourceRepo     ResourceRepositoryInterface
	chunkRepo        ChunkRepositoryInterface
	embeddingJobRepo EmbeddingJobRepositoryInterface
	txRunner         TxRunner
	uuidGen          UUIDGenerator
}

// NewResourceService creates a new ResourceService instance
func NewResourceService(
	resourceRepo ResourceRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	embeddingJobRepo EmbeddingJobRepositoryInterface,
) *ResourceService {
	return &ResourceService{
		resourceRepo:     resourceRepo,
		chunkRepo:        chunkRepo,
		embeddingJobRepo: embeddingJobRepo,
		uuidGen:          &DefaultUUIDGenerator{},
	}
}

// NewResourceServiceWithTx creates a ResourceService that persists a resource,
// its chunks, and the embedding job in a single transaction.
func NewResourceServiceWithTx(
	resourceRepo ResourceRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	embeddingJobRepo EmbeddingJobRepositoryInterface,
	txRunner TxRunner,
) *ResourceService {
	return &ResourceService{
		resourceRepo:     resourceRepo,
		chunkRepo:        chunkRepo,
		embeddingJobRepo: embeddingJobRepo,
		txRunner:         txRunner,
		uuidGen:          &DefaultUUIDGenerator{},
	}
}

// NewResourceServiceWithUUIDGen creates a new ResourceService with custom UUID generator (for testing)
func NewResourceServiceWithUUIDGen(
	resourceRepo ResourceRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	embeddingJobRepo EmbeddingJobRepositoryInterface,
	uuidGen UUIDGenerator,
) *ResourceService {
	return &ResourceService{
		resourceRepo:     resourceRepo,
		chunkRepo:        chunkRepo,
		embeddingJobRepo: embeddingJobRepo,
		uuidGen:          uuidGen,
	}
}

// Create stores a resource with its chunks and queues an embedding job. The
// resource stays pending (unsearchable) until the job embeds every chunk.
func (s *ResourceService) Create(ctx context.Context, input CreateResourceInput) (*domain.Resource, error) {
	ctx, span := telemetry.StartSpan(ctx, "ResourceService.Create", telemetry.SpanAttributes{
		BotID:     input.BotID,
		Operation: "create_resource",
	})
	defer span.End()

	if input.BotID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "bot ID is required")
	}
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "resource name is required")
	}

	chunks := make([]string, 0, len(input.Chunks))
	for _, c := range input.Chunks {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "at least one non-empty chunk is required")
	}

	now := time.Now().UTC()
	resource := domain.NewResource(s.uuidGen.NewString(), input.BotID, input.Name, input.Kind, now)
	if err := domain.ValidateResource(resource); err != nil {
		return nil, err
	}

	entries := make([]domain.ResourceChunk, len(chunks))
	for i, content := range chunks {
		entries[i] = domain.ResourceChunk{
			ID:         s.uuidGen.NewString(),
			ResourceID: resource.ID,
			ChunkIndex: i,
			Content:    content,
			CreatedAt:  now,
		}
	}
	job := domain.NewEmbeddingJob(s.uuidGen.NewString(), resource.ID, now)

	if s.txRunner != nil {
		err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			if err := repos.Resources().Create(ctx, resource); err != nil {
				return err
			}
			if err := repos.Chunks().ReplaceChunks(ctx, resource.ID, entries); err != nil {
				return err
			}
			return repos.EmbeddingJobs().Create(ctx, job)
		})
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		return resource, nil
	}

	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.chunkRepo.ReplaceChunks(ctx, resource.ID, entries); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.embeddingJobRepo.Create(ctx, job); err != nil {
		span.SetError(err)
		return nil, err
	}

	return resource, nil
}

// GetByID fetches a resource by ID
func (s *ResourceService) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	if id == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "resource ID is required")
	}
	return s.resourceRepo.GetByID(ctx, id)
}

// List returns a page of resources for a bot using keyset pagination
func (s *ResourceService) List(ctx context.Context, input ListResourcesInput) (*ListResourcesOutput, error) {
	if input.BotID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "bot ID is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}

	page, err := s.resourceRepo.ListByBotWithCursor(ctx, input.BotID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListResourcesOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// Delete removes a resource and, via cascade, its chunks
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "resource ID is required")
	}
	return s.resourceRepo.Delete(ctx, id)
}
