package service

import (
	"time"

	"github.com/betmesh/stakegate/internal/model"
)

func limit(v float64) *float64 { return &v }

// SeedDemo loads the built-in demo platforms, accounts and matches.
// There is no real sportsbook behind the catalog.
func SeedDemo(r *Registry) {
	kick := time.Now().UTC().Add(26 * time.Hour).Truncate(time.Hour)

	r.RegisterAccounts(
		model.Account{ID: "gl-001", Name: "mike_r", Platform: "goalline", Balance: 2500, Limit: limit(1000), Tags: []string{"primary"}},
		model.Account{ID: "gl-002", Name: "sarah.k", Platform: "goalline", Balance: 800, Tags: []string{"primary"}},
		model.Account{ID: "gl-003", Name: "tommy88", Platform: "goalline", Balance: 4200, Limit: limit(2000), Tags: []string{"high-roller"}},
		model.Account{ID: "gl-004", Name: "jess_w", Platform: "goalline", Balance: 150, PhoneOffline: true},
		model.Account{ID: "gl-005", Name: "dave_moto", Platform: "goalline", Balance: 1200, OnHold: true},
		model.Account{ID: "pb-001", Name: "anna.b", Platform: "primebook", Balance: 3000, Limit: limit(500), Tags: []string{"primary"}},
		model.Account{ID: "pb-002", Name: "carlos_m", Platform: "primebook", Balance: 650, Tags: []string{"backup"}},
		model.Account{ID: "pb-003", Name: "lena_q", Platform: "primebook", Balance: 9000, Tags: []string{"high-roller"}},
		model.Account{ID: "vk-001", Name: "rob_t", Platform: "vegasking", Balance: 500, Limit: limit(250)},
		model.Account{ID: "vk-002", Name: "nhat.p", Platform: "vegasking", Balance: 1800, Tags: []string{"primary"}},
	)

	r.RegisterMatches(
		model.Match{
			ID: "m-1001", Platform: "goalline", League: "NBA",
			HomeTeam: "Lakers", AwayTeam: "Celtics", StartsAt: kick,
			Markets: []model.MarketOdds{
				{Market: "moneyline_home", Odds: "-120"},
				{Market: "moneyline_away", Odds: "+105"},
				{Market: "spread_home_-3.5", Odds: "-110"},
			},
		},
		model.Match{
			ID: "m-1002", Platform: "goalline", League: "NFL",
			HomeTeam: "Chiefs", AwayTeam: "Bills", StartsAt: kick.Add(3 * time.Hour),
			Markets: []model.MarketOdds{
				{Market: "moneyline_home", Odds: "-145"},
				{Market: "moneyline_away", Odds: "+125"},
				{Market: "total_over_47.5", Odds: "-105"},
			},
		},
		model.Match{
			ID: "m-2001", Platform: "primebook", League: "EPL",
			HomeTeam: "Arsenal", AwayTeam: "Chelsea", StartsAt: kick.Add(-2 * time.Hour),
			Markets: []model.MarketOdds{
				{Market: "moneyline_home", Odds: "+150"},
				{Market: "draw", Odds: "+220"},
				{Market: "moneyline_away", Odds: "+190"},
			},
		},
		model.Match{
			ID: "m-3001", Platform: "vegasking", League: "MLB",
			HomeTeam: "Yankees", AwayTeam: "Dodgers", StartsAt: kick.Add(5 * time.Hour),
			Markets: []model.MarketOdds{
				{Market: "moneyline_home", Odds: "-130"},
				{Market: "moneyline_away", Odds: "+110"},
			},
		},
	)
}
