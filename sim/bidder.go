package sim

import (
	"fmt"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/google/uuid"

	"github.com/cloudx-io/auctionsim/core"
)

// BidderConfig holds the settlement-side tunables of a bidder, independent
// of its learning strategy.
type BidderConfig struct {
	// Shading scales the strategy estimate down before bidding. Expected
	// profit is value minus price, so a bidder must leave margin; the
	// factor is strictly less than 1.
	Shading float64

	// MinBid keeps the bidder participating even on low-value estimates.
	MinBid float64

	// MaxBid caps bids to avoid overpaying on inflated estimates.
	MaxBid float64

	// PriceHistorySize bounds the per-user ring of recently observed
	// clearing prices used for bid adaptation.
	PriceHistorySize int
}

// DefaultBidderConfig matches the tuning the simulation was calibrated with.
func DefaultBidderConfig() BidderConfig {
	return BidderConfig{
		Shading:          0.9,
		MinBid:           0.01,
		MaxBid:           0.95,
		PriceHistorySize: 10,
	}
}

// Bidder is a bidding agent for the second-price auction. It wraps a
// learning Strategy with identity, balance bookkeeping, and the pending-user
// context that bridges a round's bid call to its deferred notify call.
type Bidder struct {
	id       string
	config   BidderConfig
	strategy Strategy

	balance float64

	// pendingUser is the user of the in-flight round, -1 when no bid is
	// outstanding. Outcome feedback arrives only after settlement, so the
	// bid call records the user here and Notify consumes it.
	pendingUser int
	lastBid     float64

	// clearingPrices keeps the most recent observed clearing prices per
	// user so bids can adapt to what winning actually costs.
	clearingPrices [][]float64
}

// NewBidder creates a bidder with default tuning around the given strategy.
func NewBidder(numUsers int, strategy Strategy) *Bidder {
	return NewBidderWithConfig(numUsers, strategy, DefaultBidderConfig())
}

// NewBidderWithConfig creates a bidder with explicit tuning.
func NewBidderWithConfig(numUsers int, strategy Strategy, config BidderConfig) *Bidder {
	return &Bidder{
		id:             uuid.NewString(),
		config:         config,
		strategy:       strategy,
		pendingUser:    -1,
		clearingPrices: make([][]float64, numUsers),
	}
}

// ID returns the bidder's unique identity.
func (b *Bidder) ID() string {
	return b.id
}

// Balance returns the bidder's running profit and loss.
func (b *Bidder) Balance() float64 {
	return b.balance
}

// Strategy exposes the bidder's learning strategy for reporting.
func (b *Bidder) Strategy() Strategy {
	return b.strategy
}

// Bid produces the sealed bid for userID and records the user as the
// pending context for this round's Notify.
func (b *Bidder) Bid(userID int) float64 {
	b.pendingUser = userID

	estimate := b.strategy.Estimate(userID) * b.config.Shading
	amount := b.adaptToClearingPrices(userID, estimate)

	if amount < b.config.MinBid {
		amount = b.config.MinBid
	}
	if amount > b.config.MaxBid {
		amount = b.config.MaxBid
	}

	b.lastBid = core.ClampBid(amount)
	return b.lastBid
}

// adaptToClearingPrices nudges the bid toward what this user's auctions have
// recently cleared at: a valuable user is worth bidding just above the going
// rate, a marginal one gets a conservative discount.
func (b *Bidder) adaptToClearingPrices(userID int, estimate float64) float64 {
	history := b.clearingPrices[userID]
	if len(history) == 0 {
		return estimate
	}

	avgPrice := stats.StatsMean(history)
	if estimate > avgPrice {
		return min(estimate, avgPrice*1.1)
	}
	return estimate * 0.9
}

// Notify delivers the settled outcome of the round this bidder last bid on.
// Losers observe the clearing price but learn nothing about the user and
// keep their balance; the winner settles (clicked ? 1 : 0) - clearingPrice
// and feeds the click outcome back into its strategy.
//
// Calling Notify with won=true when no bid is outstanding is a protocol
// violation: it means the driving loop settled a round this bidder never
// entered, and silently accepting it would corrupt balance and statistics.
func (b *Bidder) Notify(won bool, clearingPrice float64, clicked bool) error {
	if b.pendingUser < 0 {
		if won {
			return fmt.Errorf("bidder %s: won notification without a pending bid", b.id)
		}
		return nil
	}

	userID := b.pendingUser
	b.pendingUser = -1

	b.recordClearingPrice(userID, clearingPrice)

	if !won {
		return nil
	}

	b.balance = core.SettleBalance(b.balance, clicked, clearingPrice)
	b.strategy.Observe(userID, clicked)
	return nil
}

func (b *Bidder) recordClearingPrice(userID int, price float64) {
	history := append(b.clearingPrices[userID], price)
	if len(history) > b.config.PriceHistorySize {
		history = history[1:]
	}
	b.clearingPrices[userID] = history
}
