package report

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func sampleSummaries() []BidderSummary {
	return []BidderSummary{
		{
			BidderID:       "b1",
			Label:          "ucb-1",
			FinalBalance:   12.5,
			RoundsWon:      40,
			Impressions:    40,
			Clicks:         25,
			ObservedCTR:    0.625,
			BalanceHistory: []float64{1, 3, 7, 12.5},
		},
		{
			BidderID:       "b2",
			Label:          "thompson-2",
			FinalBalance:   -2.5,
			RoundsWon:      10,
			Impressions:    10,
			Clicks:         2,
			ObservedCTR:    0.2,
			BalanceHistory: []float64{0, -1, -2, -2.5},
		},
	}
}

func TestNewStat(t *testing.T) {
	stat := NewStat([]float64{1, 2, 3, 4})

	check.Equal(t, 1.0, stat.Min)
	check.Equal(t, 4.0, stat.Max)
	check.Equal(t, 2.5, stat.Mean)
	check.Equal(t, 10.0, stat.Total)
	check.True(t, stat.StdDev > 1.11 && stat.StdDev < 1.12)
}

func TestNewStat_Empty(t *testing.T) {
	check.Equal(t, Stat{}, NewStat(nil))
}

func TestNewReport_BalanceStats(t *testing.T) {
	rpt := NewReport(10, 100, 42, sampleSummaries())

	check.Equal(t, 10, rpt.Users)
	check.Equal(t, 100, rpt.Rounds)
	check.Equal(t, int64(42), rpt.Seed)
	check.Equal(t, 2, len(rpt.Bidders))

	check.Equal(t, -2.5, rpt.BalanceStats.Min)
	check.Equal(t, 12.5, rpt.BalanceStats.Max)
	check.Equal(t, 10.0, rpt.BalanceStats.Total)
}

func TestReport_EncodeJSON(t *testing.T) {
	rpt := NewReport(10, 100, 42, sampleSummaries())

	data, err := rpt.EncodeJSON()
	assert.NoError(t, err)

	body := string(data)
	check.True(t, strings.Contains(body, `"ucb-1"`))
	check.True(t, strings.Contains(body, `"final_balance"`))
	check.True(t, strings.Contains(body, `"balance_stats"`))
}

func TestReport_CBORRoundTrip(t *testing.T) {
	rpt := NewReport(10, 100, 42, sampleSummaries())

	data, err := rpt.EncodeCBOR()
	assert.NoError(t, err)

	decoded, err := DecodeCBOR(data)
	assert.NoError(t, err)

	check.Equal(t, rpt, decoded)
}

func TestDecodeCBOR_Garbage(t *testing.T) {
	_, err := DecodeCBOR([]byte("not cbor at all"))
	check.Error(t, err)
}
