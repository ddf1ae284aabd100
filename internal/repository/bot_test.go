//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/botwise/internal/domain"
	"github.com/cloo-solutions/botwise/internal/testutil"
)

func createTestOrg(ctx context.Context, t *testing.T, orgRepo *OrgRepository) *domain.Organization {
	t.Helper()
	org := &domain.Organization{
		ID:        uuid.NewString(),
		Name:      "org-" + uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, orgRepo.Create(ctx, org))
	return org
}

func TestBotRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	org := createTestOrg(ctx, t, NewOrgRepository(pool))
	repo := NewBotRepository(pool)

	bot := &domain.Bot{
		ID:        uuid.NewString(),
		OrgID:     org.ID,
		Name:      "support-bot",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, bot))

	retrieved, err := repo.GetByID(ctx, bot.ID)
	require.NoError(t, err)
	assert.Equal(t, bot.ID, retrieved.ID)
	assert.Equal(t, org.ID, retrieved.OrgID)
	assert.Equal(t, "support-bot", retrieved.Name)
}

func TestBotRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewBotRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrBotNotFound)
}

func TestBotRepository_DuplicateNamePerOrg(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	org := createTestOrg(ctx, t, NewOrgRepository(pool))
	repo := NewBotRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := &domain.Bot{ID: uuid.NewString(), OrgID: org.ID, Name: "support-bot", CreatedAt: now}
	require.NoError(t, repo.Create(ctx, first))

	dup := &domain.Bot{ID: uuid.NewString(), OrgID: org.ID, Name: "support-bot", CreatedAt: now}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrBotAlreadyExists)
}

func TestBotRepository_ListByOrg(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	orgRepo := NewOrgRepository(pool)
	orgA := createTestOrg(ctx, t, orgRepo)
	orgB := createTestOrg(ctx, t, orgRepo)
	repo := NewBotRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Create(ctx, &domain.Bot{ID: uuid.NewString(), OrgID: orgA.ID, Name: "bot-a1", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &domain.Bot{ID: uuid.NewString(), OrgID: orgA.ID, Name: "bot-a2", CreatedAt: now.Add(time.Second)}))
	require.NoError(t, repo.Create(ctx, &domain.Bot{ID: uuid.NewString(), OrgID: orgB.ID, Name: "bot-b1", CreatedAt: now}))

	bots, err := repo.ListByOrg(ctx, orgA.ID)
	require.NoError(t, err)
	assert.Len(t, bots, 2)
	assert.Equal(t, "bot-a2", bots[0].Name)
}

func TestBotRepository_Delete_CascadesToResources(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	org := createTestOrg(ctx, t, NewOrgRepository(pool))
	botRepo := NewBotRepository(pool)
	resourceRepo := NewResourceRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	bot := &domain.Bot{ID: uuid.NewString(), OrgID: org.ID, Name: "support-bot", CreatedAt: now}
	require.NoError(t, botRepo.Create(ctx, bot))

	res := domain.NewResource(uuid.NewString(), bot.ID, "handbook.pdf", domain.ResourceKindDocument, now)
	require.NoError(t, resourceRepo.Create(ctx, res))

	require.NoError(t, botRepo.Delete(ctx, bot.ID))

	_, err := resourceRepo.GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}
