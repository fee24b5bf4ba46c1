package service

import (
	"context"
	"testing"
	"time"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addRecord(t *testing.T, store *HistoryMemoryStore, platform string, status model.BetStatus) string {
	t.Helper()
	id, err := store.AddRecord(context.Background(), &model.BetRecord{
		BatchID:  "batch-1",
		Platform: platform,
		Status:   status,
		Amount:   100,
	})
	require.NoError(t, err)
	return id
}

func TestHistoryListNewestFirst(t *testing.T) {
	store := NewHistoryMemoryStore()
	first := addRecord(t, store, "goalline", model.BetPending)
	second := addRecord(t, store, "goalline", model.BetPending)

	records, err := store.List(context.Background(), HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second, records[0].ID)
	assert.Equal(t, first, records[1].ID)
}

func TestHistoryListFilters(t *testing.T) {
	store := NewHistoryMemoryStore()
	addRecord(t, store, "goalline", model.BetWon)
	addRecord(t, store, "goalline", model.BetLost)
	addRecord(t, store, "primebook", model.BetWon)

	records, err := store.List(context.Background(), HistoryFilter{Platform: "goalline"})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = store.List(context.Background(), HistoryFilter{Status: model.BetWon})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = store.List(context.Background(), HistoryFilter{Platform: "goalline", Status: model.BetWon})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "goalline", records[0].Platform)

	records, err = store.List(context.Background(), HistoryFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHistoryUpdateMergesPatch(t *testing.T) {
	store := NewHistoryMemoryStore()
	id := addRecord(t, store, "goalline", model.BetPending)

	won := model.BetWon
	payout := 250.0
	elapsed := int64(4200)
	err := store.UpdateRecord(context.Background(), id, model.BetPatch{
		Status:    &won,
		Payout:    &payout,
		ElapsedMs: &elapsed,
	})
	require.NoError(t, err)

	records, err := store.List(context.Background(), HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, model.BetWon, rec.Status)
	require.NotNil(t, rec.Payout)
	assert.Equal(t, 250.0, *rec.Payout)
	require.NotNil(t, rec.ElapsedMs)
	assert.Equal(t, int64(4200), *rec.ElapsedMs)
}

func TestHistoryTerminalRecordsAreImmutable(t *testing.T) {
	store := NewHistoryMemoryStore()
	id := addRecord(t, store, "goalline", model.BetWon)

	lost := model.BetLost
	reason := "Network error"
	require.NoError(t, store.UpdateRecord(context.Background(), id, model.BetPatch{
		Status: &lost,
		Error:  &reason,
	}))

	records, err := store.List(context.Background(), HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.BetWon, records[0].Status)
	assert.Empty(t, records[0].Error)
}

func TestHistoryUpdateUnknownIDIsNoop(t *testing.T) {
	store := NewHistoryMemoryStore()
	won := model.BetWon
	assert.NoError(t, store.UpdateRecord(context.Background(), "missing", model.BetPatch{Status: &won}))
}

func TestHistoryCleanup(t *testing.T) {
	store := NewHistoryMemoryStore()
	oldID := addRecord(t, store, "goalline", model.BetWon)
	store.byID[oldID].CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	freshID := addRecord(t, store, "goalline", model.BetWon)

	require.NoError(t, store.Cleanup(context.Background(), 24*time.Hour))

	records, err := store.List(context.Background(), HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, freshID, records[0].ID)
}
