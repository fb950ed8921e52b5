package core

// Settle executes the core second-price mechanism: ranking → winner and
// runner-up extraction → clearing price.
//
// Parameters:
//   - bids: Sealed bids for this round (already clamped)
//   - randSource: Tie-break source; nil falls back to crypto/rand
//
// Returns:
//   - Settlement containing winner, runner-up, and the clearing price
//
// The runner-up is the best-ranked bid from a bidder other than the winner,
// so a bidder submitting twice never competes against itself. Clearing price
// rules:
//  1. Two or more bidders tied at the top: the price equals the shared top
//     amount (the winner's highest competitor bid the same value)
//  2. A unique top bid with competitors: the price is the runner-up's amount
//  3. No competing bidder: the price is 0 by convention (degenerate round)
func Settle(bids []Bid, randSource RandSource) *Settlement {
	ranked := RankBids(bids, randSource)

	var winner, runnerUp *Bid
	if len(ranked) > 0 {
		winner = &ranked[0]
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Bidder != winner.Bidder {
			runnerUp = &ranked[i]
			break
		}
	}

	price := 0.0
	if runnerUp != nil {
		// With a top tie the runner-up carries the same amount as the winner,
		// so both cases reduce to the runner-up's amount.
		price = runnerUp.Amount
	}

	return &Settlement{
		Winner:        winner,
		RunnerUp:      runnerUp,
		ClearingPrice: price,
	}
}
