package card_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/testutil"
)

func TestLifecycleManager_ActivateSuspendRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := card.NewDBRepository(db)
	lifecycle := card.NewLifecycleManager(db, repo)

	fixture := testutil.InsertCard(t, db)

	suspended, err := lifecycle.Suspend(ctx, fixture.ID, "manual")
	require.NoError(t, err)
	assert.Equal(t, card.StatusSuspended, suspended.Status)
	assert.Equal(t, "manual", suspended.SuspendReason)
	require.NotNil(t, suspended.SuspendedAt)

	activated, err := lifecycle.Activate(ctx, fixture.ID, card.TierUserManual, []string{"wanted it back"})
	require.NoError(t, err)
	assert.Equal(t, card.StatusActive, activated.Status)
	assert.Equal(t, card.TierUserManual, activated.Tier)
	assert.Equal(t, card.Reasons{"wanted it back"}, activated.Reasons)
	assert.Empty(t, activated.SuspendReason, "activation clears the suspend reason")
	assert.Nil(t, activated.SuspendedAt)
	require.NotNil(t, activated.ActivatedAt)
	assert.Equal(t, 0, activated.ResurrectCount, "suspension round trip is not a resurrection")

	// The review state survived the whole round trip untouched.
	stored, err := repo.FindByID(ctx, fixture.ID)
	require.NoError(t, err)
	assert.Equal(t, fixture.ReviewState, stored.ReviewState)
	assert.Equal(t, fixture.Stability, stored.Stability)
}

func TestLifecycleManager_Activate_Dormant(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := card.NewDBRepository(db)
	lifecycle := card.NewLifecycleManager(db, repo)

	fixture := testutil.InsertCard(t, db, func(c *card.Card) {
		c.Status = card.StatusDormant
		c.DueDate = nil
	})

	activated, err := lifecycle.Activate(ctx, fixture.ID, card.TierAuto, []string{"forgotten in topic entry quiz"})
	require.NoError(t, err)
	assert.Equal(t, 1, activated.ResurrectCount, "reviving a dormant card counts as a resurrection")
	require.NotNil(t, activated.DueDate, "an active card always has a due date")
}

func TestLifecycleManager_Activate_NotFound(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	lifecycle := card.NewLifecycleManager(db, card.NewDBRepository(db))

	_, err := lifecycle.Activate(ctx, "missing", card.TierAuto, nil)
	assert.ErrorIs(t, err, card.ErrNotFound)
}

func TestLifecycleManager_CheckAndSuspendLeech(t *testing.T) {
	tests := []struct {
		name          string
		lapses        int
		status        card.ActivationStatus
		wantSuspended bool
	}{
		{name: "below threshold stays active", lapses: 5, status: card.StatusActive, wantSuspended: false},
		{name: "at threshold is suspended", lapses: 6, status: card.StatusActive, wantSuspended: true},
		{name: "dormant card is left alone", lapses: 8, status: card.StatusDormant, wantSuspended: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := testutil.OpenDB(t)
			repo := card.NewDBRepository(db)
			lifecycle := card.NewLifecycleManager(db, repo)

			fixture := testutil.InsertCard(t, db, func(c *card.Card) {
				c.Lapses = tt.lapses
				c.Status = tt.status
			})

			got, err := lifecycle.CheckAndSuspendLeech(ctx, fixture.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuspended, got)

			stored, err := repo.FindByID(ctx, fixture.ID)
			require.NoError(t, err)
			if tt.wantSuspended {
				assert.Equal(t, card.StatusSuspended, stored.Status)
				assert.Equal(t, card.LeechReason, stored.SuspendReason)
			} else {
				assert.Equal(t, tt.status, stored.Status)
				assert.Empty(t, stored.SuspendReason)
			}
		})
	}
}

func TestLifecycleManager_BulkTransitions(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := card.NewDBRepository(db)
	lifecycle := card.NewLifecycleManager(db, repo)

	a := testutil.InsertCard(t, db, func(c *card.Card) { c.Status = card.StatusDormant; c.DueDate = nil })
	b := testutil.InsertCard(t, db, func(c *card.Card) { c.Status = card.StatusSuspended })

	require.NoError(t, lifecycle.BulkActivate(ctx, []string{a.ID, b.ID}, card.TierAuto, []string{"batch"}))

	for _, id := range []string{a.ID, b.ID} {
		stored, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, card.StatusActive, stored.Status)
		assert.Equal(t, card.TierAuto, stored.Tier)
		require.NotNil(t, stored.DueDate)
	}

	require.NoError(t, lifecycle.BulkSuspend(ctx, []string{a.ID, b.ID}, "cleanup"))
	for _, id := range []string{a.ID, b.ID} {
		stored, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, card.StatusSuspended, stored.Status)
		assert.Equal(t, "cleanup", stored.SuspendReason)
	}

	// A missing ID rolls the whole batch back.
	err := lifecycle.BulkActivate(ctx, []string{a.ID, "missing"}, card.TierAuto, nil)
	require.Error(t, err)
	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, card.StatusSuspended, stored.Status, "failed batch left no partial writes")
}

func TestLifecycleManager_FindBySourceBlock(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := card.NewDBRepository(db)
	lifecycle := card.NewLifecycleManager(db, repo)

	testutil.InsertCard(t, db, func(c *card.Card) { c.BlockID = "block-7" })
	testutil.InsertCard(t, db, func(c *card.Card) {
		c.BlockID = "block-7"
		c.Lapses = 5
	})
	testutil.InsertCard(t, db, func(c *card.Card) { c.BlockID = "elsewhere" })

	got, err := lifecycle.FindBySourceBlock(ctx, "block-7")
	require.NoError(t, err)
	require.Len(t, got, 2)

	atRisk := 0
	for _, bc := range got {
		assert.Equal(t, 1, bc.SiblingCount)
		if bc.AtRisk {
			atRisk++
		}
	}
	assert.Equal(t, 1, atRisk)
}
