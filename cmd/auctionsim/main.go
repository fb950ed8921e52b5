package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/cloudx-io/auctionsim/core"
	"github.com/cloudx-io/auctionsim/report"
	"github.com/cloudx-io/auctionsim/sim"
)

type options struct {
	users    int
	bidders  int
	rounds   int
	seed     int64
	strategy string
	chart    string
	report   string
	format   string
}

func parseOptions() options {
	var opts options
	flag.IntVar(&opts.users, "users", 10, "number of users with hidden click probabilities")
	flag.IntVar(&opts.bidders, "bidders", 5, "number of competing bidders")
	flag.IntVar(&opts.rounds, "rounds", 1000, "number of auction rounds to run")
	flag.Int64Var(&opts.seed, "seed", 0, "random seed (0 uses the current time)")
	flag.StringVar(&opts.strategy, "strategy", "mixed", "bidding strategy: ucb, thompson, or mixed")
	flag.StringVar(&opts.chart, "chart", "", "write a balance-over-time SVG chart to this path")
	flag.StringVar(&opts.report, "report", "", "write the final report to this path")
	flag.StringVar(&opts.format, "format", "json", "report encoding: json or cbor")
	flag.Parse()
	return opts
}

func main() {
	opts := parseOptions()

	if opts.users < 1 || opts.bidders < 1 || opts.rounds < 1 {
		log.Fatal("ERROR: -users, -bidders, and -rounds must all be positive")
	}
	if opts.format != "json" && opts.format != "cbor" {
		log.Fatalf("ERROR: unknown report format %q (want json or cbor)", opts.format)
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	log.Printf("INFO: Starting simulation: %d users, %d bidders, %d rounds, seed %d",
		opts.users, opts.bidders, opts.rounds, seed)

	users := make([]*sim.User, opts.users)
	for i := range users {
		users[i] = sim.NewUser(rng)
	}

	bidders, labels, err := buildBidders(opts, rng)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	participants := make([]sim.Participant, len(bidders))
	for i, b := range bidders {
		participants[i] = b
	}

	auction, err := sim.NewAuction(users, participants, rng)
	if err != nil {
		log.Fatalf("ERROR: Failed to construct auction: %v", err)
	}

	start := time.Now()
	if err := auction.Run(opts.rounds); err != nil {
		log.Fatalf("ERROR: Simulation aborted: %v", err)
	}
	log.Printf("INFO: Completed %d rounds in %s", auction.Rounds(), time.Since(start))

	summaries := summarize(auction, bidders, labels, opts.users)
	rpt := report.NewReport(opts.users, opts.rounds, seed, summaries)

	printBalances(summaries, rpt)

	if opts.chart != "" {
		if err := writeChart(opts.chart, summaries); err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		log.Printf("INFO: Wrote balance chart to %s", opts.chart)
	}

	if opts.report != "" {
		if err := writeReport(opts.report, opts.format, rpt); err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		log.Printf("INFO: Wrote %s report to %s", opts.format, opts.report)
	}
}

// buildBidders constructs the requested bidders. The mixed strategy
// alternates UCB and Thompson Sampling so the two policies compete head to
// head in one run.
func buildBidders(opts options, rng core.RandSource) ([]*sim.Bidder, []string, error) {
	bidders := make([]*sim.Bidder, 0, opts.bidders)
	labels := make([]string, 0, opts.bidders)

	for i := 0; i < opts.bidders; i++ {
		name := opts.strategy
		if name == "mixed" {
			if i%2 == 0 {
				name = "ucb"
			} else {
				name = "thompson"
			}
		}

		strategy, err := sim.NewStrategy(name, opts.users, opts.rounds, rng)
		if err != nil {
			return nil, nil, err
		}

		bidders = append(bidders, sim.NewBidder(opts.users, strategy))
		labels = append(labels, fmt.Sprintf("%s-%d", name, i+1))
	}

	return bidders, labels, nil
}

func summarize(auction *sim.Auction, bidders []*sim.Bidder, labels []string, numUsers int) []report.BidderSummary {
	summaries := make([]report.BidderSummary, 0, len(bidders))

	for i, b := range bidders {
		var impressions, clicks uint64
		for userID := 0; userID < numUsers; userID++ {
			imp, clk := b.Strategy().Stats(userID)
			impressions += imp
			clicks += clk
		}

		ctr := 0.0
		if impressions > 0 {
			ctr = float64(clicks) / float64(impressions)
		}

		summaries = append(summaries, report.BidderSummary{
			BidderID:     b.ID(),
			Label:        labels[i],
			FinalBalance: auction.Balance(b.ID()),
			// Winner-only learning: every impression is a won round.
			RoundsWon:      int(impressions),
			Impressions:    impressions,
			Clicks:         clicks,
			ObservedCTR:    ctr,
			BalanceHistory: auction.History(b.ID()),
		})
	}

	return summaries
}

func printBalances(summaries []report.BidderSummary, rpt *report.Report) {
	fmt.Printf("%-14s %12s %8s %8s %8s\n", "BIDDER", "BALANCE", "WON", "CLICKS", "CTR")
	for _, s := range summaries {
		fmt.Printf("%-14s %12.3f %8d %8d %8.3f\n",
			s.Label, s.FinalBalance, s.RoundsWon, s.Clicks, s.ObservedCTR)
	}
	fmt.Printf("balance mean %.3f, stddev %.3f, total %.3f\n",
		rpt.BalanceStats.Mean, rpt.BalanceStats.StdDev, rpt.BalanceStats.Total)
}

func writeChart(path string, summaries []report.BidderSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("ERROR: Failed to close chart file: %v", err)
		}
	}()

	return report.WriteBalanceChart(f, summaries)
}

func writeReport(path, format string, rpt *report.Report) error {
	var data []byte
	var err error
	if format == "cbor" {
		data, err = rpt.EncodeCBOR()
	} else {
		data, err = rpt.EncodeJSON()
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
