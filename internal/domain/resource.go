package domain

import (
	"fmt"
	"time"
)

// ResourceKind identifies where a resource's content came from.
type ResourceKind string

const (
	ResourceKindDocument ResourceKind = "document"
	ResourceKindURL      ResourceKind = "url"
	ResourceKindAudio    ResourceKind = "audio"
)

// ResourceStatus tracks the embedding lifecycle of a resource.
type ResourceStatus string

const (
	// ResourceStatusPending means chunks exist but embeddings have not been
	// generated yet; the resource is not searchable.
	ResourceStatusPending ResourceStatus = "pending"
	// ResourceStatusReady means every chunk carries an embedding.
	ResourceStatusReady ResourceStatus = "ready"
	// ResourceStatusFailed means embedding generation gave up after retries.
	ResourceStatusFailed ResourceStatus = "failed"
)

// Resource is a unit of uploaded content (document, URL scrape, audio
// transcript) owned by a bot. Its text arrives pre-chunked from the upstream
// ingestion pipeline.
type Resource struct {
	ID        string
	BotID     string
	Name      string
	Kind      ResourceKind
	Status    ResourceStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewResource creates a new Resource instance in the pending state.
func NewResource(id, botID, name string, kind ResourceKind, createdAt time.Time) *Resource {
	return &Resource{
		ID:        id,
		BotID:     botID,
		Name:      name,
		Kind:      kind,
		Status:    ResourceStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidateResource validates a Resource instance
func ValidateResource(r *Resource) error {
	if r == nil {
		return fmt.Errorf("resource cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("resource ID is required")
	}

	if r.BotID == "" {
		return fmt.Errorf("resource BotID is required")
	}

	if r.Name == "" {
		return fmt.Errorf("resource Name is required")
	}

	if !isValidResourceKind(r.Kind) {
		return ErrInvalidResourceKind
	}

	if !isValidResourceStatus(r.Status) {
		return ErrInvalidResourceStatus
	}

	return nil
}

func isValidResourceKind(k ResourceKind) bool {
	switch k {
	case ResourceKindDocument, ResourceKindURL, ResourceKindAudio:
		return true
	}
	return false
}

func isValidResourceStatus(s ResourceStatus) bool {
	switch s {
	case ResourceStatusPending, ResourceStatusReady, ResourceStatusFailed:
		return true
	}
	return false
}
