// Package retrieval implements bot-scoped knowledge retrieval: embed the
// query, fetch candidate chunks, filter against the local score distribution,
// re-rank for diversity, and return a single grounded answer.
package retrieval

import (
	"context"
	"strings"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Candidate is a scored chunk produced by the store for one retrieval call.
// Candidates live only for the duration of the call.
type Candidate struct {
	ChunkID    string
	ResourceID string
	Content    string
	Similarity float64
}

// CandidateStore runs a bot-scoped similarity query over stored chunks.
// Results are ordered by descending similarity (1 - cosine distance) and the
// store is responsible for tenant filtering: the engine must never receive
// chunks belonging to another bot.
type CandidateStore interface {
	TopCandidates(ctx context.Context, embedding []float32, botID string, limit int) ([]Candidate, error)
}

// Config controls engine behavior.
type Config struct {
	// CandidateLimit is the number of chunks fetched from the store.
	CandidateLimit int
	// StdFactor scales the standard deviation when computing the relevance
	// cutoff: threshold = mean - StdFactor*std.
	StdFactor float64
	// Lambda weighs relevance against diversity in the re-ranking step.
	Lambda float64
	// SelectCount is the size of the diverse shortlist.
	SelectCount int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		CandidateLimit: 10,
		StdFactor:      0.5,
		Lambda:         0.5,
		SelectCount:    3,
	}
}

// Status messages carried on successful results.
const (
	MessageFound          = "found relevant content"
	MessageBelowThreshold = "no candidates above threshold"
)

// Result is a successful retrieval outcome.
type Result struct {
	ChunkID    string
	ResourceID string
	Content    string
	Similarity float64
	Message    string
}

// Engine is the retrieval pipeline. It holds no mutable state; concurrent
// calls are independent.
type Engine struct {
	embedder Embedder
	store    CandidateStore
	cfg      Config
}

// NewEngine creates an Engine with the default configuration.
func NewEngine(embedder Embedder, store CandidateStore) *Engine {
	return NewEngineWithConfig(embedder, store, DefaultConfig())
}

// NewEngineWithConfig creates an Engine with explicit configuration.
func NewEngineWithConfig(embedder Embedder, store CandidateStore, cfg Config) *Engine {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultConfig().CandidateLimit
	}
	if cfg.SelectCount <= 0 {
		cfg.SelectCount = DefaultConfig().SelectCount
	}
	return &Engine{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Retrieve answers a free-text query with the most relevant chunk belonging
// to the given bot. Every failure is returned as a *retrieval.Error carrying
// a Reason; nothing panics past this boundary. The call is deterministic for
// a fixed corpus and embedder output.
func (e *Engine) Retrieve(ctx context.Context, query, botID string) (*Result, error) {
	// Preconditions are checked before any embedding or store work.
	if strings.TrimSpace(botID) == "" {
		return nil, &Error{Reason: ReasonMissingScope}
	}
	if strings.TrimSpace(query) == "" {
		return nil, &Error{Reason: ReasonMissingQuery}
	}

	embedding, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, &Error{Reason: ReasonEmbeddingUnavailable, Err: err}
	}
	if len(embedding) == 0 {
		return nil, &Error{Reason: ReasonEmbeddingUnavailable}
	}

	candidates, err := e.store.TopCandidates(ctx, embedding, botID, e.cfg.CandidateLimit)
	if err != nil {
		return nil, &Error{Reason: ReasonFetchFailed, Err: err}
	}
	if len(candidates) == 0 {
		return nil, &Error{Reason: ReasonNoCandidates}
	}

	filtered := filterByThreshold(candidates, e.cfg.StdFactor)
	if len(filtered) == 0 {
		// The adaptive cutoff can eliminate everything (pathological score
		// distributions, float precision). Prefer a grounded answer over none:
		// degrade to the best raw candidate.
		best := bestCandidate(candidates)
		return resultFrom(best, MessageBelowThreshold), nil
	}

	selected := selectDiverse(filtered, e.cfg.Lambda, e.cfg.SelectCount)
	best := bestCandidate(selected)
	return resultFrom(best, MessageFound), nil
}

// filterByThreshold keeps candidates scoring at or above a cutoff relative to
// the local score distribution: mean - stdFactor*std, with the population
// standard deviation. A tight cluster barely trims; a lone standout among
// weak matches trims the tail aggressively.
func filterByThreshold(candidates []Candidate, stdFactor float64) []Candidate {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Similarity
	}

	threshold := mean(scores) - stdFactor*stdDev(scores)

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= threshold {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// bestCandidate returns the highest-similarity candidate. Ties keep the
// earliest candidate.
func bestCandidate(candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Similarity > best.Similarity {
			best = c
		}
	}
	return best
}

func resultFrom(c Candidate, message string) *Result {
	return &Result{
		ChunkID:    c.ChunkID,
		ResourceID: c.ResourceID,
		Content:    c.Content,
		Similarity: c.Similarity,
		Message:    message,
	}
}
