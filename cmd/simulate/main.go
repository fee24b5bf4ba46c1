package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/betmesh/stakegate/internal/config"
	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/service"
	"github.com/cheggaaa/pb/v3"
)

// simulate runs a number of bet batches through the lifecycle engine on a
// mock clock and prints aggregate outcome statistics. Useful for checking
// that the configured success rate and distribution modes behave sanely
// without waiting for real timers.
func main() {
	batches := flag.Int("batches", 200, "number of batches to simulate")
	perBatch := flag.Int("bets", 4, "bets per batch")
	total := flag.Float64("total", 1000, "total stake distributed per batch")
	mode := flag.String("mode", service.ModeNoisy, "distribution mode (even|noisy)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	mock := clock.NewMock()
	history := service.NewHistoryMemoryStore()
	exposure := service.NewExposureMemoryStore()
	registry := service.NewRegistry(exposure, 0)
	service.SeedDemo(registry)
	distributor := service.NewDistributor(cfg.Distribution, rand.New(rand.NewSource(*seed)))
	engine := service.NewEngine(cfg.Engine, history, exposure, nil, mock)

	ctx := context.Background()
	accounts := registry.EligibleAccounts(ctx, "goalline", "")
	if len(accounts) < *perBatch {
		fmt.Fprintf(os.Stderr, "not enough eligible demo accounts (%d < %d)\n", len(accounts), *perBatch)
		os.Exit(1)
	}
	accounts = accounts[:*perBatch]
	match, _ := registry.Match("m-1001")

	var won, lost int
	var staked, paid float64
	reasons := make(map[string]int)

	bar := pb.StartNew(*batches)
	for i := 0; i < *batches; i++ {
		caps := make([]service.CapAccount, len(accounts))
		for j, a := range accounts {
			caps[j] = service.CapAccount{ID: a.ID, MaxBet: a.MaxBet()}
		}
		alloc, err := distributor.Distribute(*total, caps, *mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "distribute: %v\n", err)
			os.Exit(1)
		}

		selections := make([]service.BetSelection, 0, len(accounts))
		for _, a := range accounts {
			selections = append(selections, service.BetSelection{
				Account: a,
				Match:   match,
				Market:  "moneyline_home",
				Odds:    match.OddsFor("moneyline_home"),
				Amount:  alloc.Allocations[a.ID],
			})
		}

		batch, err := engine.Submit(ctx, selections)
		if err != nil {
			fmt.Fprintf(os.Stderr, "submit: %v\n", err)
			os.Exit(1)
		}

		// Run the whole lifecycle: ack window, resolution spread, dismiss.
		horizon := time.Duration(cfg.Engine.AckBaseMs+len(selections)*cfg.Engine.AckStepMs+
			cfg.Engine.AckSettleMs+cfg.Engine.ResolveMaxMs+cfg.Engine.AutoDismissMs+100) * time.Millisecond
		mock.Add(horizon)

		select {
		case <-batch.Done():
		case <-time.After(2 * time.Second):
			fmt.Fprintln(os.Stderr, "batch did not settle in time")
			os.Exit(1)
		}

		snap := batch.Snapshot()
		for _, rec := range snap.Records {
			staked += rec.Amount
			switch rec.Status {
			case model.BetWon:
				won++
				if rec.Payout != nil {
					paid += *rec.Payout
				}
			case model.BetLost:
				lost++
				reasons[rec.Error]++
			}
		}
		bar.Increment()
	}
	bar.Finish()

	totalBets := won + lost
	fmt.Printf("\nbatches: %d  bets: %d\n", *batches, totalBets)
	fmt.Printf("won:  %6d (%.1f%%)\n", won, 100*float64(won)/float64(totalBets))
	fmt.Printf("lost: %6d (%.1f%%)\n", lost, 100*float64(lost)/float64(totalBets))
	fmt.Printf("staked: %.2f  paid out: %.2f  hold: %.2f\n", staked, paid, staked-paid)
	if len(reasons) > 0 {
		fmt.Println("failure reasons:")
		for reason, n := range reasons {
			fmt.Printf("  %-32s %d\n", reason, n)
		}
	}
}
