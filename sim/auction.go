package sim

import (
	"fmt"

	"github.com/cloudx-io/auctionsim/core"
)

// DisqualificationFloor is the balance below which a bidder stops being
// invited to bid. It keeps a runaway money-losing agent from distorting
// clearing prices for the rest of the run.
const DisqualificationFloor = -1000.0

// Participant is the auction-facing surface of a bidder. Scripted
// implementations stand in for learning bidders in tests.
type Participant interface {
	ID() string
	Bid(userID int) float64
	Notify(won bool, clearingPrice float64, clicked bool) error
}

// Auction coordinates a repeated second-price sealed-bid auction over a
// fixed set of users and bidders. Each round runs strictly sequentially:
// select a user, collect sealed bids, settle winner and clearing price,
// realize the click, and notify every bidder of the outcome.
type Auction struct {
	users   []*User
	bidders []Participant
	rand    core.RandSource

	balances map[string]float64
	history  map[string][]float64
	rounds   int
}

// NewAuction creates an auction over the given users and bidders. The
// RandSource drives user selection, click realization (through the users),
// and tie-breaking; a seeded source makes the whole run reproducible.
func NewAuction(users []*User, bidders []Participant, randSource core.RandSource) (*Auction, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("auction requires at least one user")
	}
	if len(bidders) == 0 {
		return nil, fmt.Errorf("auction requires at least one bidder")
	}

	balances := make(map[string]float64, len(bidders))
	history := make(map[string][]float64, len(bidders))
	for _, bidder := range bidders {
		balances[bidder.ID()] = 0
		history[bidder.ID()] = []float64{}
	}

	return &Auction{
		users:    users,
		bidders:  bidders,
		rand:     randSource,
		balances: balances,
		history:  history,
	}, nil
}

// ExecuteRound runs one complete auction round. A round with no qualified
// bidders still counts but settles nothing. The returned error is a protocol
// violation surfaced by a bidder's Notify; the auction's own steps are pure
// in-memory computation and cannot fail.
func (a *Auction) ExecuteRound() error {
	a.rounds++

	userID := a.rand.Intn(len(a.users))
	user := a.users[userID]

	// Bidders that have lost more than the floor sit the round out.
	active := make([]Participant, 0, len(a.bidders))
	for _, bidder := range a.bidders {
		if a.balances[bidder.ID()] >= DisqualificationFloor {
			active = append(active, bidder)
		}
	}

	if len(active) == 0 {
		a.recordHistory()
		return nil
	}

	bids := make([]core.Bid, 0, len(active))
	for _, bidder := range active {
		bids = append(bids, core.Bid{
			Bidder: bidder.ID(),
			Amount: core.ClampBid(bidder.Bid(userID)),
		})
	}

	settlement := core.Settle(bids, a.rand)

	// One draw, shared by the balance update and the winner's learning
	// update, so both see the same outcome.
	clicked := user.ShowAd()

	for _, bidder := range active {
		won := bidder.ID() == settlement.Winner.Bidder
		if err := bidder.Notify(won, settlement.ClearingPrice, clicked); err != nil {
			return fmt.Errorf("round %d: notify %s: %w", a.rounds, bidder.ID(), err)
		}
		// Settle the central ledger together with the winner's own, so a
		// failure later in the loop cannot leave the two apart.
		if won {
			id := bidder.ID()
			a.balances[id] = core.SettleBalance(a.balances[id], clicked, settlement.ClearingPrice)
		}
	}

	a.recordHistory()
	return nil
}

// Run executes the given number of rounds, stopping on the first error.
func (a *Auction) Run(rounds int) error {
	for i := 0; i < rounds; i++ {
		if err := a.ExecuteRound(); err != nil {
			return err
		}
	}
	return nil
}

// recordHistory appends every bidder's current balance, one sample per
// bidder per round.
func (a *Auction) recordHistory() {
	for _, bidder := range a.bidders {
		id := bidder.ID()
		a.history[id] = append(a.history[id], a.balances[id])
	}
}

// Rounds returns the number of rounds executed so far.
func (a *Auction) Rounds() int {
	return a.rounds
}

// Balance returns the running balance for the given bidder.
func (a *Auction) Balance(bidderID string) float64 {
	return a.balances[bidderID]
}

// FinalBalances returns a copy of every bidder's running balance.
func (a *Auction) FinalBalances() map[string]float64 {
	balances := make(map[string]float64, len(a.balances))
	for id, balance := range a.balances {
		balances[id] = balance
	}
	return balances
}

// History returns the per-round balance series for the given bidder.
func (a *Auction) History(bidderID string) []float64 {
	return a.history[bidderID]
}

// Bidders returns the participants in their fixed auction order.
func (a *Auction) Bidders() []Participant {
	return a.bidders
}
