package service

import (
	"math"
	"math/rand"
	"time"

	"github.com/betmesh/stakegate/internal/config"
	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/pkg/apperrors"
	"github.com/betmesh/stakegate/internal/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	ModeEven  = "even"
	ModeNoisy = "noisy"

	// Tolerance is the absolute rounding slack allowed on the aggregate
	// and on per-account caps.
	Tolerance = 0.01
)

// CapAccount is the distributor's view of an account: just an id and the
// hard ceiling for its stake. The caller filters eligibility beforehand.
type CapAccount struct {
	ID     string
	MaxBet float64
}

// Distributor splits a total stake across accounts subject to per-account
// caps, redistributing the remainder iteratively. The noisy mode perturbs
// each increment with a random factor and rounds amounts to significant
// digits so quick-distribute results look hand-placed.
type Distributor struct {
	defaultMode string
	noiseMin    float64
	noiseMax    float64
	maxPasses   int
	rng         *rand.Rand
}

func NewDistributor(cfg config.DistributionConfig, rng *rand.Rand) *Distributor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	mode := cfg.Mode
	if mode != ModeNoisy {
		mode = ModeEven
	}
	maxPasses := cfg.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 100
	}
	noiseMin, noiseMax := cfg.NoiseMin, cfg.NoiseMax
	if noiseMin <= 0 || noiseMax < noiseMin {
		noiseMin, noiseMax = 0.85, 1.15
	}
	return &Distributor{
		defaultMode: mode,
		noiseMin:    noiseMin,
		noiseMax:    noiseMax,
		maxPasses:   maxPasses,
		rng:         rng,
	}
}

// DefaultMode returns the configured mode used when a request does not
// name one.
func (d *Distributor) DefaultMode() string {
	return d.defaultMode
}

// Distribute allocates total across accounts. The returned allocations sum
// to total within Tolerance whenever total fits under the aggregate caps;
// otherwise every account is filled to its cap and the excess is reported
// as Shortfall. A non-positive total or an empty account set is rejected
// with no side effects.
func (d *Distributor) Distribute(total float64, accounts []CapAccount, mode string) (*model.AllocationResult, error) {
	if total <= 0 {
		return nil, apperrors.NewInvalidRequest("total must be positive")
	}
	if len(accounts) == 0 {
		return nil, apperrors.NewInvalidRequest("no eligible accounts")
	}
	if mode != ModeEven && mode != ModeNoisy {
		mode = d.defaultMode
	}

	want := decimal.NewFromFloat(total)
	caps := make([]decimal.Decimal, len(accounts))
	alloc := make([]decimal.Decimal, len(accounts))
	for i, a := range accounts {
		if a.MaxBet > 0 {
			caps[i] = decimal.NewFromFloat(a.MaxBet)
		}
	}

	remaining := want
	tol := decimal.NewFromFloat(Tolerance)

	for pass := 0; pass < d.maxPasses; pass++ {
		if remaining.LessThanOrEqual(tol) {
			break
		}
		open := 0
		for i := range accounts {
			if caps[i].GreaterThan(alloc[i]) {
				open++
			}
		}
		if open == 0 {
			break
		}

		share := remaining.Div(decimal.NewFromInt(int64(open)))
		assigned := decimal.Zero
		for i := range accounts {
			headroom := caps[i].Sub(alloc[i])
			if !headroom.IsPositive() {
				continue
			}
			inc := share
			if mode == ModeNoisy {
				factor := d.noiseMin + d.rng.Float64()*(d.noiseMax-d.noiseMin)
				inc = roundSig(inc.Mul(decimal.NewFromFloat(factor)), 2)
			} else {
				inc = inc.Round(2)
			}
			if inc.GreaterThan(headroom) {
				inc = headroom
			}
			if budget := remaining.Sub(assigned); inc.GreaterThan(budget) {
				inc = budget
			}
			if !inc.IsPositive() {
				continue
			}
			alloc[i] = alloc[i].Add(inc)
			assigned = assigned.Add(inc)
		}

		if !assigned.IsPositive() {
			// No account had usable headroom; the remainder is
			// irrecoverable and reported as shortfall.
			break
		}
		remaining = remaining.Sub(assigned)
	}

	// Per-pass cent (even) and significant-digit (noisy) rounding can
	// strand a residual below the per-account rounding step; close it on
	// the last account that still has room to move.
	remaining = d.reconcile(want, caps, alloc)

	result := &model.AllocationResult{
		Allocations: make(map[string]float64, len(accounts)),
		Mode:        mode,
	}
	sum := decimal.Zero
	for i, a := range accounts {
		if alloc[i].IsNegative() {
			alloc[i] = decimal.Zero
		}
		result.Allocations[a.ID] = alloc[i].InexactFloat64()
		sum = sum.Add(alloc[i])
	}
	result.Assigned = sum.InexactFloat64()
	shortfall := want.Sub(sum)
	if shortfall.GreaterThan(tol) {
		result.Shortfall = shortfall.InexactFloat64()
		metrics.DistributionShortfall.Add(result.Shortfall)
	}
	metrics.DistributionsTotal.WithLabelValues(mode).Inc()
	return result, nil
}

// reconcile closes the residual gap left by noisy rounding by adjusting
// the last account that still has room to move. Prefers 2 significant
// digits, falls back to 3, and finally to the exact value; the adjusted
// allocation never drops below 0.01 and never exceeds its cap.
func (d *Distributor) reconcile(want decimal.Decimal, caps, alloc []decimal.Decimal) decimal.Decimal {
	tol := decimal.NewFromFloat(Tolerance)
	floor := decimal.NewFromFloat(0.01)

	sum := decimal.Zero
	for _, a := range alloc {
		sum = sum.Add(a)
	}
	delta := want.Sub(sum)
	if delta.Abs().LessThanOrEqual(tol) {
		return want.Sub(sum)
	}

	idx := -1
	for i := len(alloc) - 1; i >= 0; i-- {
		if delta.IsPositive() && caps[i].GreaterThan(alloc[i]) {
			idx = i
			break
		}
		if delta.IsNegative() && alloc[i].GreaterThan(floor) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return want.Sub(sum)
	}

	target := alloc[idx].Add(delta)
	if target.GreaterThan(caps[idx]) {
		target = caps[idx]
	}
	if target.LessThan(floor) {
		target = floor
	}

	rest := sum.Sub(alloc[idx])
	for _, digits := range []int{2, 3} {
		rounded := roundSig(target, digits)
		if rounded.GreaterThan(caps[idx]) || rounded.LessThan(floor) {
			continue
		}
		if want.Sub(rest.Add(rounded)).Abs().LessThanOrEqual(tol) {
			alloc[idx] = rounded
			return want.Sub(rest.Add(rounded))
		}
	}
	alloc[idx] = target
	return want.Sub(rest.Add(target))
}

// roundSig rounds to the given number of significant digits.
func roundSig(v decimal.Decimal, digits int) decimal.Decimal {
	if v.IsZero() {
		return v
	}
	f := math.Abs(v.InexactFloat64())
	magnitude := int(math.Floor(math.Log10(f)))
	places := digits - 1 - magnitude
	return v.Round(int32(places))
}
