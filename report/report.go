// Package report turns a finished auction run into artifacts: summary
// statistics per bidder, a balance-over-time chart, and an encodable report
// document.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/fxamacker/cbor/v2"
)

// Stat summarizes a series of float64 samples.
type Stat struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Total  float64 `json:"total"`
}

// NewStat computes summary statistics over data. An empty series yields the
// zero Stat.
func NewStat(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}
	return Stat{
		Min:    stats.StatsMin(data),
		Max:    stats.StatsMax(data),
		Mean:   stats.StatsMean(data),
		StdDev: stats.StatsPopulationStandardDeviation(data),
		Total:  stats.StatsSum(data),
	}
}

// BidderSummary captures one bidder's results over a full run.
type BidderSummary struct {
	BidderID     string  `json:"bidder_id"`
	Label        string  `json:"label"`
	FinalBalance float64 `json:"final_balance"`
	RoundsWon    int     `json:"rounds_won"`
	Impressions  uint64  `json:"impressions"`
	Clicks       uint64  `json:"clicks"`
	ObservedCTR  float64 `json:"observed_ctr"`

	// BalanceHistory is the per-round balance series, one sample per round.
	BalanceHistory []float64 `json:"balance_history,omitempty"`
}

// Report is the final document of a simulation run.
type Report struct {
	Users        int             `json:"users"`
	Rounds       int             `json:"rounds"`
	Seed         int64           `json:"seed"`
	Bidders      []BidderSummary `json:"bidders"`
	BalanceStats Stat            `json:"balance_stats"`
}

// NewReport assembles a report from per-bidder summaries.
func NewReport(users, rounds int, seed int64, bidders []BidderSummary) *Report {
	finals := make([]float64, 0, len(bidders))
	for _, b := range bidders {
		finals = append(finals, b.FinalBalance)
	}

	return &Report{
		Users:        users,
		Rounds:       rounds,
		Seed:         seed,
		Bidders:      bidders,
		BalanceStats: NewStat(finals),
	}
}

// EncodeJSON renders the report as indented JSON.
func (r *Report) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return data, nil
}

// EncodeCBOR renders the report in compact CBOR.
func (r *Report) EncodeCBOR() ([]byte, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report as CBOR: %w", err)
	}
	return data, nil
}

// DecodeCBOR parses a CBOR-encoded report.
func DecodeCBOR(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR report: %w", err)
	}
	return &r, nil
}
