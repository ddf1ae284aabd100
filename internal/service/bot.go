package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/botwise/internal/domain"
)

// BotRepositoryInterface defines the repository interface for bot persistence
type BotRepositoryInterface interface {
	Create(ctx context.Context, bot *domain.Bot) error
	GetByID(ctx context.Context, id string) (*domain.Bot, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Bot, error)
	Delete(ctx context.Context, id string) error
}

// BotService handles business logic for bots
type BotService struct {
	botRepo BotRepositoryInterface
	uuidGen UUIDGenerator
}

// NewBotService creates a new BotService instance
func NewBotService(botRepo BotRepositoryInterface) *BotService {
	return &BotService{
		botRepo: botRepo,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// NewBotServiceWithUUIDGen creates a new BotService with custom UUID generator (for testing)
func NewBotServiceWithUUIDGen(botRepo BotRepositoryInterface, uuidGen UUIDGenerator) *BotService {
	return &BotService{
		botRepo: botRepo,
		uuidGen: uuidGen,
	}
}

// Create creates a new bot for an organization
func (s *BotService) Create(ctx context.Context, orgID, name string) (*domain.Bot, error) {
	if orgID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "organization ID is required")
	}
	if name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "bot name is required")
	}

	bot := domain.NewBot(s.uuidGen.NewString(), orgID, name, time.Now().UTC())
	if err := domain.ValidateBot(bot); err != nil {
		return nil, err
	}

	if err := s.botRepo.Create(ctx, bot); err != nil {
		return nil, err
	}

	return bot, nil
}

// GetForOrg fetches a bot and verifies it belongs to the given organization.
// Cross-org access resolves to forbidden, never to another org's bot.
func (s *BotService) GetForOrg(ctx context.Context, orgID, botID string) (*domain.Bot, error) {
	if botID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "bot ID is required")
	}

	bot, err := s.botRepo.GetByID(ctx, botID)
	if err != nil {
		return nil, err
	}

	if bot.OrgID != orgID {
		return nil, domain.ErrBotForbidden
	}

	return bot, nil
}

// ListByOrg returns all bots belonging to an organization
func (s *BotService) ListByOrg(ctx context.Context, orgID string) ([]*domain.Bot, error) {
	if orgID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "organization ID is required")
	}
	return s.botRepo.ListByOrg(ctx, orgID)
}

// Delete removes a bot after verifying org ownership. Resources and chunks
// cascade at the database level.
func (s *BotService) Delete(ctx context.Context, orgID, botID string) error {
	if _, err := s.GetForOrg(ctx, orgID, botID); err != nil {
		return err
	}
	return s.botRepo.Delete(ctx, botID)
}
