package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBot(t *testing.T) {
	now := time.Now().UTC()
	bot := NewBot("bot-1", "org-1", "Support Bot", now)

	assert.Equal(t, "bot-1", bot.ID)
	assert.Equal(t, "org-1", bot.OrgID)
	assert.Equal(t, "Support Bot", bot.Name)
	assert.Equal(t, now, bot.CreatedAt)
	assert.Equal(t, now, bot.UpdatedAt)
}

func TestValidateBot(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		bot     *Bot
		wantErr string
	}{
		{name: "valid", bot: NewBot("bot-1", "org-1", "Support Bot", now)},
		{name: "nil", bot: nil, wantErr: "bot cannot be nil"},
		{name: "missing id", bot: NewBot("", "org-1", "Support Bot", now), wantErr: "bot ID is required"},
		{name: "missing org", bot: NewBot("bot-1", "", "Support Bot", now), wantErr: "bot OrgID is required"},
		{name: "missing name", bot: NewBot("bot-1", "org-1", "", now), wantErr: "bot Name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBot(tt.bot)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
