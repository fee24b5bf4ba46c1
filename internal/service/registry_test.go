package service

import (
	"context"
	"testing"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(exposure ExposureRepo, dailyCap float64) *Registry {
	r := NewRegistry(exposure, dailyCap)
	r.RegisterAccounts(
		model.Account{ID: "a-1", Name: "mike_r", Platform: "goalline", Balance: 500, Tags: []string{"vip"}},
		model.Account{ID: "a-2", Name: "sarah.k", Platform: "goalline", Balance: 2000, Limit: limit(300)},
		model.Account{ID: "a-3", Name: "tommy88", Platform: "goalline", Balance: 800, PhoneOffline: true},
		model.Account{ID: "a-4", Name: "anna.b", Platform: "goalline", Balance: 800, OnHold: true},
		model.Account{ID: "a-5", Name: "lena_q", Platform: "goalline", Balance: 0},
		model.Account{ID: "b-1", Name: "other", Platform: "primebook", Balance: 100},
	)
	r.RegisterMatches(
		model.Match{ID: "m-1", Platform: "goalline", League: "NBA", HomeTeam: "Lakers", AwayTeam: "Celtics"},
	)
	return r
}

func TestEligibleAccountsFiltering(t *testing.T) {
	r := testRegistry(nil, 0)

	got := r.EligibleAccounts(context.Background(), "goalline", "")
	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}

	// Offline, on-hold and zero-balance accounts are all invisible.
	assert.Equal(t, []string{"a-1", "a-2"}, ids)
}

func TestEligibleAccountsTagFilter(t *testing.T) {
	r := testRegistry(nil, 0)

	got := r.EligibleAccounts(context.Background(), "goalline", "vip")
	require.Len(t, got, 1)
	assert.Equal(t, "a-1", got[0].ID)
}

func TestCapsForUsesLowerOfBalanceAndLimit(t *testing.T) {
	r := testRegistry(nil, 0)

	caps, err := r.CapsFor(context.Background(), "goalline", []string{"a-1", "a-2"})
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, 500.0, caps[0].MaxBet)
	assert.Equal(t, 300.0, caps[1].MaxBet) // limit below balance wins
}

func TestCapsForRejectsUnknownAccount(t *testing.T) {
	r := testRegistry(nil, 0)

	_, err := r.CapsFor(context.Background(), "goalline", []string{"a-1", "nope"})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Type)
}

func TestCapsForSkipsIneligible(t *testing.T) {
	r := testRegistry(nil, 0)

	caps, err := r.CapsFor(context.Background(), "goalline", []string{"a-3", "a-4", "a-5", "a-1"})
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, "a-1", caps[0].ID)
}

func TestCapsForCrossPlatformLookupFails(t *testing.T) {
	r := testRegistry(nil, 0)

	_, err := r.CapsFor(context.Background(), "goalline", []string{"b-1"})
	assert.Error(t, err)
}

func TestDailyExposureShavesCaps(t *testing.T) {
	exposure := NewExposureMemoryStore()
	r := testRegistry(exposure, 400)
	ctx := context.Background()

	// Nothing staked yet: the daily cap itself is the ceiling.
	caps, err := r.CapsFor(ctx, "goalline", []string{"a-1"})
	require.NoError(t, err)
	assert.Equal(t, 400.0, caps[0].MaxBet)

	require.NoError(t, exposure.AddDailyStake(ctx, "a-1", 350))

	caps, err = r.CapsFor(ctx, "goalline", []string{"a-1"})
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, 50.0, caps[0].MaxBet)

	// Exhausted accounts drop out entirely.
	require.NoError(t, exposure.AddDailyStake(ctx, "a-1", 50))
	caps, err = r.CapsFor(ctx, "goalline", []string{"a-1"})
	require.NoError(t, err)
	assert.Empty(t, caps)

	got := r.EligibleAccounts(ctx, "goalline", "vip")
	assert.Empty(t, got)
}

func TestExposureResetDropsOnlyStaleBuckets(t *testing.T) {
	exposure := NewExposureMemoryStore()
	ctx := context.Background()

	require.NoError(t, exposure.AddDailyStake(ctx, "a-1", 100))
	exposure.staked["a-1:2020-01-01"] = 400 // leftover from an old day

	require.NoError(t, exposure.ResetDaily(ctx))

	staked, err := exposure.GetDailyStake(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, staked, "today's bucket survives a mid-day reset")
	assert.NotContains(t, exposure.staked, "a-1:2020-01-01")
}
