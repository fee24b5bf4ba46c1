package service

import (
	"context"
	"sort"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/pkg/apperrors"
)

// Registry is the read-only account and match catalog, partitioned by
// platform. The engine and distributor never see ineligible accounts:
// the registry filters offline/on-hold accounts and shaves caps by the
// daily exposure already staked when a daily cap is configured.
type Registry struct {
	exposure ExposureRepo
	dailyCap float64

	accounts map[string][]model.Account // by platform, insertion order
	matches  map[string][]model.Match
	byID     map[string]model.Account // platform+"/"+id
	matchID  map[string]model.Match
}

func NewRegistry(exposure ExposureRepo, dailyCap float64) *Registry {
	return &Registry{
		exposure: exposure,
		dailyCap: dailyCap,
		accounts: make(map[string][]model.Account),
		matches:  make(map[string][]model.Match),
		byID:     make(map[string]model.Account),
		matchID:  make(map[string]model.Match),
	}
}

// RegisterAccounts loads accounts into the catalog. Meant to be called
// once at startup with seed data.
func (r *Registry) RegisterAccounts(accounts ...model.Account) {
	for _, a := range accounts {
		r.accounts[a.Platform] = append(r.accounts[a.Platform], a)
		r.byID[a.Platform+"/"+a.ID] = a
	}
}

func (r *Registry) RegisterMatches(matches ...model.Match) {
	for _, m := range matches {
		r.matches[m.Platform] = append(r.matches[m.Platform], m)
		r.matchID[m.ID] = m
	}
}

func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.accounts))
	for p := range r.accounts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Accounts(platform string) []model.Account {
	return r.accounts[platform]
}

func (r *Registry) Account(platform, id string) (model.Account, bool) {
	a, ok := r.byID[platform+"/"+id]
	return a, ok
}

func (r *Registry) Matches(platform string) []model.Match {
	return r.matches[platform]
}

func (r *Registry) Match(id string) (model.Match, bool) {
	m, ok := r.matchID[id]
	return m, ok
}

// EligibleAccounts returns the accounts of a platform that can take a
// stake right now, optionally narrowed to a tag.
func (r *Registry) EligibleAccounts(ctx context.Context, platform, tag string) []model.Account {
	out := make([]model.Account, 0)
	for _, a := range r.accounts[platform] {
		if tag != "" && !a.HasTag(tag) {
			continue
		}
		if !a.Eligible() {
			continue
		}
		if cap, _ := r.usableCap(ctx, a); cap <= 0 {
			continue
		}
		out = append(out, a)
	}
	return out
}

// CapsFor resolves the requested account ids into distribution inputs.
// Unknown or ineligible accounts are rejected so a distribution can never
// target an offline or exhausted account.
func (r *Registry) CapsFor(ctx context.Context, platform string, ids []string) ([]CapAccount, error) {
	caps := make([]CapAccount, 0, len(ids))
	for _, id := range ids {
		a, ok := r.Account(platform, id)
		if !ok {
			return nil, apperrors.NewNotFound("unknown account " + id)
		}
		if !a.Eligible() {
			continue
		}
		cap, err := r.usableCap(ctx, a)
		if err != nil {
			return nil, apperrors.Wrap(err)
		}
		if cap <= 0 {
			continue
		}
		caps = append(caps, CapAccount{ID: a.ID, MaxBet: cap})
	}
	return caps, nil
}

// usableCap is MaxBet reduced by what the account already staked today
// when a daily exposure cap is configured.
func (r *Registry) usableCap(ctx context.Context, a model.Account) (float64, error) {
	cap := a.MaxBet()
	if r.dailyCap <= 0 || r.exposure == nil {
		return cap, nil
	}
	staked, err := r.exposure.GetDailyStake(ctx, a.ID)
	if err != nil {
		return cap, err
	}
	left := r.dailyCap - staked
	if left < cap {
		cap = left
	}
	if cap < 0 {
		cap = 0
	}
	return cap, nil
}
