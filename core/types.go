package core

// Bid represents a single sealed bid submitted for one auction round.
type Bid struct {
	Bidder string  `json:"bidder"`
	Amount float64 `json:"amount"`
}

// Settlement contains the outcome of settling one round of sealed bids.
// The clearing price follows second-price rules: the winner pays the
// highest competing bid, never its own.
type Settlement struct {
	// Winner is the highest-ranked bid (nil if no bids were submitted)
	Winner *Bid

	// RunnerUp is the second-highest-ranked bid (nil if fewer than 2 bids)
	RunnerUp *Bid

	// ClearingPrice is the amount the winner pays. With a single bid it is
	// 0 by convention; with a tie at the top it equals the shared top amount.
	ClearingPrice float64
}
