package domain

import (
	"fmt"
	"time"
)

// Bot represents a chatbot tenant. Every retrievable chunk belongs to exactly
// one bot via its owning resource.
type Bot struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBot creates a new Bot instance
func NewBot(id, orgID, name string, createdAt time.Time) *Bot {
	return &Bot{
		ID:        id,
		OrgID:     orgID,
		Name:      name,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidateBot validates a Bot instance
func ValidateBot(b *Bot) error {
	if b == nil {
		return fmt.Errorf("bot cannot be nil")
	}

	if b.ID == "" {
		return fmt.Errorf("bot ID is required")
	}

	if b.OrgID == "" {
		return fmt.Errorf("bot OrgID is required")
	}

	if b.Name == "" {
		return fmt.Errorf("bot Name is required")
	}

	return nil
}
