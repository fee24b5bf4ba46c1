package model

// Account is one sportsbook account inside a platform. The engine only
// reads balance, limit and the two availability flags; everything else is
// selection convenience for clients.
type Account struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Platform     string   `json:"platform"`
	Balance      float64  `json:"balance"`
	Limit        *float64 `json:"limit,omitempty"` // nil means unbounded
	PhoneOffline bool     `json:"phone_offline"`
	OnHold       bool     `json:"on_hold"`
	Tags         []string `json:"tags,omitempty"`
}

// MaxBet is the hard ceiling for a single stake on this account:
// min(balance, limit), never negative.
func (a *Account) MaxBet() float64 {
	max := a.Balance
	if a.Limit != nil && *a.Limit < max {
		max = *a.Limit
	}
	if max < 0 {
		return 0
	}
	return max
}

// Eligible reports whether the account can receive a distribution at all.
// Offline and on-hold accounts are never eligible.
func (a *Account) Eligible() bool {
	return !a.PhoneOffline && !a.OnHold && a.MaxBet() > 0
}

func (a *Account) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
