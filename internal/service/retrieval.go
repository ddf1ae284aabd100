package service

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/retrieval"
	"github.com/cloo-solutions/botwise/internal/telemetry"
)

// RetrievalLogEntry records one retrieval request for later inspection
type RetrievalLogEntry struct {
	ID         string
	BotID      string
	Query      string
	Found      bool
	Reason     string
	Similarity float64
	DurationMs int64
	CreatedAt  time.Time
}

// RetrievalLogRepository defines the repository interface for retrieval logs
type RetrievalLogRepository interface {
	Insert(ctx context.Context, entry *RetrievalLogEntry) error
}

// RetrievalService runs org-scoped retrievals through the engine and logs
// every attempt, successful or not.
type RetrievalService struct {
	bots    *BotService
	engine  *retrieval.Engine
	logRepo RetrievalLogRepository
	uuidGen UUIDGenerator
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(bots *BotService, engine *retrieval.Engine, logRepo RetrievalLogRepository) *RetrievalService {
	return &RetrievalService{
		bots:    bots,
		engine:  engine,
		logRepo: logRepo,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// Retrieve verifies the bot belongs to the calling org, then delegates to the
// engine. Ownership failures surface as domain errors; engine failures keep
// their retrieval error taxonomy so callers can map reasons.
func (s *RetrievalService) Retrieve(ctx context.Context, orgID, botID, query string) (*retrieval.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		OrgID:     orgID,
		BotID:     botID,
		Operation: "retrieve",
	})
	defer span.End()

	if _, err := s.bots.GetForOrg(ctx, orgID, botID); err != nil {
		if err != domain.ErrBotForbidden && err != domain.ErrBotNotFound {
			span.SetError(err)
		}
		return nil, err
	}

	start := time.Now()
	result, err := s.engine.Retrieve(ctx, query, botID)
	s.logAttempt(ctx, botID, query, result, err, time.Since(start))

	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}

// logAttempt writes the retrieval log entry best effort. A logging failure
// never fails the request.
func (s *RetrievalService) logAttempt(ctx context.Context, botID, query string, result *retrieval.Result, retErr error, elapsed time.Duration) {
	if s.logRepo == nil {
		return
	}

	entry := &RetrievalLogEntry{
		ID:         s.uuidGen.NewString(),
		BotID:      botID,
		Query:      query,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if retErr != nil {
		entry.Reason = string(retrieval.ReasonOf(retErr))
	} else {
		entry.Found = true
		entry.Similarity = result.Similarity
	}

	if err := s.logRepo.Insert(ctx, entry); err != nil {
		log.Printf("retrieval: failed to write log entry for bot %s: %v", botID, err)
	}
}
