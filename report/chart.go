package report

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
)

const (
	chartWidth   = 960
	chartHeight  = 540
	chartBorder  = 60
	legendHeight = 20
	plotWidth    = chartWidth - 2*chartBorder
	plotHeight   = chartHeight - 2*chartBorder

	axisStyle  = `stroke:rgb(60,60,60);stroke-width:1`
	gridStyle  = `stroke:rgb(220,220,220);stroke-width:1`
	labelStyle = `text-anchor:middle;font-size:12px;font-family:Helvetica Neue`
	titleStyle = `text-anchor:middle;font-size:18px;font-family:Helvetica Neue`
)

var seriesColors = []string{
	"rgb(31,119,180)",
	"rgb(255,127,14)",
	"rgb(44,160,44)",
	"rgb(214,39,40)",
	"rgb(148,103,189)",
	"rgb(140,86,75)",
	"rgb(227,119,194)",
	"rgb(127,127,127)",
}

// WriteBalanceChart renders every bidder's balance-over-time series as an
// SVG line chart. Series are drawn in summary order and colored from a fixed
// palette, cycling when there are more bidders than colors.
func WriteBalanceChart(w io.Writer, summaries []BidderSummary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("balance chart requires at least one bidder summary")
	}

	rounds := 0
	minBalance, maxBalance := 0.0, 0.0
	for _, s := range summaries {
		if len(s.BalanceHistory) > rounds {
			rounds = len(s.BalanceHistory)
		}
		for _, b := range s.BalanceHistory {
			if b < minBalance {
				minBalance = b
			}
			if b > maxBalance {
				maxBalance = b
			}
		}
	}
	if rounds == 0 {
		return fmt.Errorf("balance chart requires at least one recorded round")
	}
	if maxBalance == minBalance {
		maxBalance = minBalance + 1
	}

	canvas := svg.New(w)
	canvas.Start(chartWidth, chartHeight)

	canvas.Text(chartWidth/2, chartBorder/2, "Bidder Balances Over Time", titleStyle)

	// Axes
	canvas.Line(chartBorder, chartBorder, chartBorder, chartHeight-chartBorder, axisStyle)
	canvas.Line(chartBorder, chartHeight-chartBorder, chartWidth-chartBorder, chartHeight-chartBorder, axisStyle)
	canvas.Text(chartWidth/2, chartHeight-chartBorder/3, "Round", labelStyle)

	// Zero line when the balance range crosses it
	if minBalance < 0 && maxBalance > 0 {
		zeroY := plotY(0, minBalance, maxBalance)
		canvas.Line(chartBorder, zeroY, chartWidth-chartBorder, zeroY, gridStyle)
	}

	for i, s := range summaries {
		if len(s.BalanceHistory) == 0 {
			continue
		}

		xs := make([]int, len(s.BalanceHistory))
		ys := make([]int, len(s.BalanceHistory))
		for j, balance := range s.BalanceHistory {
			xs[j] = plotX(j, rounds)
			ys[j] = plotY(balance, minBalance, maxBalance)
		}

		color := seriesColors[i%len(seriesColors)]
		canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", color))

		// Legend entry
		legendY := chartBorder + i*legendHeight
		canvas.Rect(chartWidth-chartBorder-150, legendY, 12, 12, "fill:"+color)
		canvas.Text(chartWidth-chartBorder-130, legendY+10,
			fmt.Sprintf("%s (%.3f)", s.Label, s.FinalBalance),
			`text-anchor:start;font-size:12px;font-family:Helvetica Neue`)
	}

	canvas.End()
	return nil
}

func plotX(round, rounds int) int {
	if rounds <= 1 {
		return chartBorder
	}
	return chartBorder + round*plotWidth/(rounds-1)
}

func plotY(balance, minBalance, maxBalance float64) int {
	frac := (balance - minBalance) / (maxBalance - minBalance)
	return chartHeight - chartBorder - int(frac*float64(plotHeight))
}
