package forge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/forge"
	"github.com/Dogebooch/doughub/internal/testutil"
)

func TestService_Forge(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)

	recordRepo := forge.NewDBRecordRepository(db)
	cardRepo := card.NewDBRepository(db)
	svc := forge.NewService(db, forge.NewGenerator(), recordRepo, cardRepo)

	record := &forge.KnowledgeRecord{
		ID:        "rec-lisinopril",
		Archetype: forge.ArchetypeDrug,
		Title:     "Lisinopril",
		TopicID:   "topic-cardio",
		StructuredData: forge.StructuredData{
			"mechanismOfAction": "ACE inhibition",
			"indications":       []any{"hypertension", "heart failure"},
		},
	}
	require.NoError(t, recordRepo.Create(ctx, record))

	cards, err := svc.Forge(ctx, record.ID, "block-3")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.True(t, cards[0].IsGoldenTicket)
	assert.Equal(t, card.StatusActive, cards[0].Status)
	assert.Equal(t, card.StatusSuspended, cards[1].Status)

	// Cards were persisted and the record stamped.
	stored, err := cardRepo.FindByBlock(ctx, "block-3")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	reloaded, err := recordRepo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ForgedAt)

	// Forging is one-time.
	_, err = svc.Forge(ctx, record.ID, "block-3")
	assert.ErrorIs(t, err, forge.ErrAlreadyForged)
}

func TestService_Forge_NotReady(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)

	recordRepo := forge.NewDBRecordRepository(db)
	svc := forge.NewService(db, forge.NewGenerator(), recordRepo, card.NewDBRepository(db))

	record := &forge.KnowledgeRecord{
		ID:             "rec-empty",
		Archetype:      forge.ArchetypeDrug,
		Title:          "Mystery drug",
		StructuredData: forge.StructuredData{"indications": []any{"unknown"}},
	}
	require.NoError(t, recordRepo.Create(ctx, record))

	_, err := svc.Forge(ctx, record.ID, "")
	assert.ErrorIs(t, err, forge.ErrNotForgeReady)

	// A rejected forge leaves the record unforged.
	reloaded, err := recordRepo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ForgedAt)
}

func TestService_Forge_UnknownRecord(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)

	svc := forge.NewService(db, forge.NewGenerator(), forge.NewDBRecordRepository(db), card.NewDBRepository(db))

	_, err := svc.Forge(ctx, "missing", "")
	assert.ErrorIs(t, err, forge.ErrRecordNotFound)
}

func TestService_Preview(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)

	recordRepo := forge.NewDBRecordRepository(db)
	svc := forge.NewService(db, forge.NewGenerator(), recordRepo, card.NewDBRepository(db))

	record := &forge.KnowledgeRecord{
		ID:        "rec-preview",
		Archetype: forge.ArchetypeAnatomy,
		Title:     "Brachial plexus",
		StructuredData: forge.StructuredData{
			"structure":   "Roots C5-T1 forming trunks, divisions, cords, branches",
			"relations":   "Passes between anterior and middle scalene muscles",
			"innervation": "Motor and sensory supply of the upper limb",
		},
	}
	require.NoError(t, recordRepo.Create(ctx, record))

	count, err := svc.Preview(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count.GoldenTicket)
	assert.Equal(t, 2, count.PracticeBank)

	// Preview does not forge.
	reloaded, err := recordRepo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ForgedAt)
}

func TestDBRecordRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := forge.NewDBRecordRepository(db)

	record := &forge.KnowledgeRecord{
		ID:        "rec-rt",
		Archetype: forge.ArchetypePathogen,
		Title:     "Staphylococcus aureus",
		TopicID:   "topic-micro",
		StructuredData: forge.StructuredData{
			"keyCharacteristics": "Gram-positive cocci in clusters, coagulase positive",
		},
	}
	require.NoError(t, repo.Create(ctx, record))

	got, err := repo.FindByID(ctx, "rec-rt")
	require.NoError(t, err)
	assert.Equal(t, record.Title, got.Title)
	assert.Equal(t, record.Archetype, got.Archetype)
	v, ok := got.StructuredData.Lookup("keyCharacteristics")
	require.True(t, ok)
	assert.Equal(t, "Gram-positive cocci in clusters, coagulase positive", v)

	byTopic, err := repo.FindByTopic(ctx, "topic-micro")
	require.NoError(t, err)
	require.Len(t, byTopic, 1)

	require.NoError(t, repo.MarkForged(ctx, "rec-rt", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	got, err = repo.FindByID(ctx, "rec-rt")
	require.NoError(t, err)
	assert.NotNil(t, got.ForgedAt)

	err = repo.MarkForged(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, forge.ErrRecordNotFound)
}
