package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/botwise/internal/domain"
)

// MockOrgRepository is a mock implementation of OrgRepository
type MockOrgRepository struct {
	mock.Mock
}

func (m *MockOrgRepository) Create(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrgRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrgRepository) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByOrgID(ctx context.Context, orgID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUUIDGenerator returns a fixed sequence of IDs
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}

func newAuthService(orgRepo *MockOrgRepository, keyRepo *MockAPIKeyRepository, ids ...string) *AuthService {
	return NewAuthService(orgRepo, keyRepo, NewMockUUIDGenerator(ids...))
}

func TestAuthService_CreateOrg(t *testing.T) {
	ctx := context.Background()

	t.Run("creates organization", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(orgRepo, keyRepo, "org-id-1")

		orgRepo.On("Create", mock.Anything, mock.MatchedBy(func(org *domain.Organization) bool {
			return org.ID == "org-id-1" && org.Name == "acme"
		})).Return(nil)

		org, err := service.CreateOrg(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "org-id-1", org.ID)
		assert.Equal(t, "acme", org.Name)

		orgRepo.AssertExpectations(t)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		service := newAuthService(new(MockOrgRepository), new(MockAPIKeyRepository))

		_, err := service.CreateOrg(ctx, "")
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeValidation, domain.GetErrorCode(err))
	})
}

func TestAuthService_CreateAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("returns plaintext token and stores only the hash", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(orgRepo, keyRepo, "key-id-1")

		orgRepo.On("GetByID", mock.Anything, "org-1").Return(&domain.Organization{
			ID: "org-1", Name: "acme", CreatedAt: time.Now(),
		}, nil)

		var stored *domain.APIKey
		keyRepo.On("Create", mock.Anything, mock.MatchedBy(func(key *domain.APIKey) bool {
			stored = key
			return key.ID == "key-id-1" && key.OrgID == "org-1" && key.Name == "ci"
		})).Return(nil)

		token, err := service.CreateAPIKey(ctx, "org-1", "ci")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(token, "bw_"))
		assert.True(t, IsValidAPIToken(token))
		require.NotNil(t, stored)
		assert.NotEqual(t, token, stored.KeyHash)
		assert.Len(t, stored.KeyHash, 64)

		orgRepo.AssertExpectations(t)
		keyRepo.AssertExpectations(t)
	})

	t.Run("fails when organization does not exist", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(orgRepo, keyRepo, "key-id-1")

		orgRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrOrganizationNotFound)

		_, err := service.CreateAPIKey(ctx, "missing", "ci")
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
		keyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_CreateAPIKeyWithToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects malformed token", func(t *testing.T) {
		service := newAuthService(new(MockOrgRepository), new(MockAPIKeyRepository), "key-id-1")

		err := service.CreateAPIKeyWithToken(ctx, "org-1", "bootstrap", "not-a-token")
		require.Error(t, err)
		assert.Equal(t, domain.ErrCodeValidation, domain.GetErrorCode(err))
	})

	t.Run("stores hash of provided token", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(orgRepo, keyRepo, "key-id-1")

		token := "bw_" + strings.Repeat("ab", 32)

		orgRepo.On("GetByID", mock.Anything, "org-1").Return(&domain.Organization{
			ID: "org-1", Name: "acme", CreatedAt: time.Now(),
		}, nil)
		keyRepo.On("Create", mock.Anything, mock.MatchedBy(func(key *domain.APIKey) bool {
			return key.KeyHash == hashToken(token)
		})).Return(nil)

		err := service.CreateAPIKeyWithToken(ctx, "org-1", "bootstrap", token)
		require.NoError(t, err)
		keyRepo.AssertExpectations(t)
	})
}

func TestAuthService_ValidateAPIKey(t *testing.T) {
	ctx := context.Background()
	token := "bw_" + strings.Repeat("cd", 32)

	t.Run("resolves token to org ID", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(new(MockOrgRepository), keyRepo)

		keyRepo.On("GetByHash", mock.Anything, hashToken(token)).Return(&domain.APIKey{
			ID: "key-1", OrgID: "org-1", Name: "ci", KeyHash: hashToken(token),
		}, nil)

		orgID, err := service.ValidateAPIKey(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "org-1", orgID)
	})

	t.Run("rejects malformed token without repository lookup", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(new(MockOrgRepository), keyRepo)

		_, err := service.ValidateAPIKey(ctx, "bw_short")
		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
		keyRepo.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
	})

	t.Run("maps unknown hash to invalid key", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(new(MockOrgRepository), keyRepo)

		keyRepo.On("GetByHash", mock.Anything, hashToken(token)).Return(nil, domain.ErrAPIKeyNotFound)

		_, err := service.ValidateAPIKey(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
	})

	t.Run("rejects revoked key", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(new(MockOrgRepository), keyRepo)

		revokedAt := time.Now().UTC()
		keyRepo.On("GetByHash", mock.Anything, hashToken(token)).Return(&domain.APIKey{
			ID: "key-1", OrgID: "org-1", Name: "ci", KeyHash: hashToken(token), RevokedAt: &revokedAt,
		}, nil)

		_, err := service.ValidateAPIKey(ctx, token)
		assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		service := newAuthService(new(MockOrgRepository), keyRepo)

		dbErr := errors.New("connection reset")
		keyRepo.On("GetByHash", mock.Anything, hashToken(token)).Return(nil, dbErr)

		_, err := service.ValidateAPIKey(ctx, token)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestIsValidAPIToken(t *testing.T) {
	valid := "bw_" + strings.Repeat("0f", 32)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid token", valid, true},
		{"missing prefix", strings.Repeat("0f", 32), false},
		{"wrong prefix", "sk_" + strings.Repeat("0f", 32), false},
		{"too short", "bw_abcdef", false},
		{"non-hex payload", "bw_" + strings.Repeat("zz", 32), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAPIToken(tt.token))
		})
	}
}
