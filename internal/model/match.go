package model

import "time"

// MarketOdds is one offered market on a match, odds in American convention
// ("+150", "-120").
type MarketOdds struct {
	Market string `json:"market"`
	Odds   string `json:"odds"`
}

// Match is a mock fixture offered by a platform.
type Match struct {
	ID       string       `json:"id"`
	Platform string       `json:"platform"`
	League   string       `json:"league"`
	HomeTeam string       `json:"home_team"`
	AwayTeam string       `json:"away_team"`
	StartsAt time.Time    `json:"starts_at"`
	Markets  []MarketOdds `json:"markets"`
}

// OddsFor returns the odds string for a market key, or "" when the match
// does not offer it.
func (m *Match) OddsFor(market string) string {
	for _, mk := range m.Markets {
		if mk.Market == market {
			return mk.Odds
		}
	}
	return ""
}
