package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/betmesh/stakegate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDistributor(seed int64) *Distributor {
	return NewDistributor(config.DistributionConfig{
		Mode:      ModeEven,
		NoiseMin:  0.85,
		NoiseMax:  1.15,
		MaxPasses: 100,
	}, rand.New(rand.NewSource(seed)))
}

func sumAlloc(allocations map[string]float64) float64 {
	var sum float64
	for _, v := range allocations {
		sum += v
	}
	return sum
}

func TestDistributeEvenConservation(t *testing.T) {
	d := testDistributor(1)

	res, err := d.Distribute(1000, []CapAccount{
		{ID: "a", MaxBet: 400},
		{ID: "b", MaxBet: 1000000},
		{ID: "c", MaxBet: 200},
	}, ModeEven)
	require.NoError(t, err)

	assert.InDelta(t, 1000, sumAlloc(res.Allocations), Tolerance)
	assert.InDelta(t, 400, res.Allocations["a"], Tolerance)
	assert.InDelta(t, 400, res.Allocations["b"], Tolerance)
	assert.InDelta(t, 200, res.Allocations["c"], Tolerance)
	assert.Zero(t, res.Shortfall)
}

func TestDistributeCapRespect(t *testing.T) {
	d := testDistributor(2)
	caps := []CapAccount{
		{ID: "a", MaxBet: 50},
		{ID: "b", MaxBet: 75.5},
		{ID: "c", MaxBet: 1200},
		{ID: "d", MaxBet: 3.37},
	}

	for _, mode := range []string{ModeEven, ModeNoisy} {
		res, err := d.Distribute(600, caps, mode)
		require.NoError(t, err, mode)
		for _, a := range caps {
			got := res.Allocations[a.ID]
			assert.GreaterOrEqual(t, got, 0.0, "%s/%s", mode, a.ID)
			assert.LessOrEqual(t, got, a.MaxBet+Tolerance, "%s/%s", mode, a.ID)
		}
		assert.InDelta(t, 600, sumAlloc(res.Allocations), Tolerance, mode)
	}
}

func TestDistributeNoisyConservation(t *testing.T) {
	d := testDistributor(3)

	for _, total := range []float64{50, 137.5, 1000, 9999} {
		res, err := d.Distribute(total, []CapAccount{
			{ID: "a", MaxBet: 5000},
			{ID: "b", MaxBet: 5000},
			{ID: "c", MaxBet: 5000},
			{ID: "d", MaxBet: 5000},
			{ID: "e", MaxBet: 5000},
		}, ModeNoisy)
		require.NoError(t, err)
		assert.InDelta(t, total, sumAlloc(res.Allocations), Tolerance, "total %v", total)
	}
}

func TestDistributeShortfall(t *testing.T) {
	d := testDistributor(4)

	res, err := d.Distribute(1000, []CapAccount{
		{ID: "a", MaxBet: 100},
		{ID: "b", MaxBet: 200},
	}, ModeEven)
	require.NoError(t, err)

	assert.InDelta(t, 100, res.Allocations["a"], Tolerance)
	assert.InDelta(t, 200, res.Allocations["b"], Tolerance)
	assert.InDelta(t, 300, res.Assigned, Tolerance)
	assert.InDelta(t, 700, res.Shortfall, Tolerance)
}

func TestDistributeAllCapsZero(t *testing.T) {
	d := testDistributor(5)

	res, err := d.Distribute(500, []CapAccount{
		{ID: "a", MaxBet: 0},
		{ID: "b", MaxBet: 0},
	}, ModeEven)
	require.NoError(t, err)

	assert.Zero(t, res.Allocations["a"])
	assert.Zero(t, res.Allocations["b"])
	assert.InDelta(t, 500, res.Shortfall, Tolerance)
}

func TestDistributeInvalidInput(t *testing.T) {
	d := testDistributor(6)

	_, err := d.Distribute(0, []CapAccount{{ID: "a", MaxBet: 100}}, ModeEven)
	assert.Error(t, err)

	_, err = d.Distribute(-10, []CapAccount{{ID: "a", MaxBet: 100}}, ModeEven)
	assert.Error(t, err)

	_, err = d.Distribute(100, nil, ModeEven)
	assert.Error(t, err)
}

func TestDistributeTermination(t *testing.T) {
	d := testDistributor(7)

	// Wildly uneven caps must still converge inside the pass budget.
	caps := make([]CapAccount, 50)
	rng := rand.New(rand.NewSource(99))
	var capSum float64
	for i := range caps {
		max := float64(rng.Intn(100000)) / 7.3
		caps[i] = CapAccount{ID: fmt.Sprintf("acct-%d", i), MaxBet: max}
		capSum += max
	}

	for _, mode := range []string{ModeEven, ModeNoisy} {
		res, err := d.Distribute(capSum/2, caps, mode)
		require.NoError(t, err, mode)
		assert.InDelta(t, capSum/2, sumAlloc(res.Allocations), Tolerance, mode)
		for _, a := range caps {
			assert.LessOrEqual(t, res.Allocations[a.ID], a.MaxBet+Tolerance)
		}
	}
}

func TestDistributeEvenSubCentResidual(t *testing.T) {
	d := testDistributor(9)

	// 100.02 over 8 accounts leaves 0.02 after each gets 12.50; the
	// residual is below the per-account cent step but must still land.
	caps := make([]CapAccount, 8)
	for i := range caps {
		caps[i] = CapAccount{ID: fmt.Sprintf("acct-%d", i), MaxBet: 1000}
	}

	res, err := d.Distribute(100.02, caps, ModeEven)
	require.NoError(t, err)
	assert.InDelta(t, 100.02, sumAlloc(res.Allocations), Tolerance)
	assert.Zero(t, res.Shortfall)
	for _, a := range caps {
		assert.LessOrEqual(t, res.Allocations[a.ID], a.MaxBet+Tolerance)
	}
}

func TestDistributeSingleAccount(t *testing.T) {
	d := testDistributor(8)

	res, err := d.Distribute(250, []CapAccount{{ID: "only", MaxBet: 300}}, ModeEven)
	require.NoError(t, err)
	assert.InDelta(t, 250, res.Allocations["only"], Tolerance)
}
