package sim

import (
	"fmt"

	"github.com/cloudx-io/auctionsim/core"
)

// Strategy produces click-probability estimates for users and learns from
// realized outcomes. Implementations decide how to trade off exploration
// (learning about under-sampled users) against exploitation (favoring users
// with known-high click rates); they are interchangeable values, selected at
// bidder construction.
type Strategy interface {
	// Estimate returns a non-negative estimate of the probability that the
	// given user clicks. Users with no recorded impressions get the
	// strategy's cold-start behavior rather than an error.
	Estimate(userID int) float64

	// Observe records the outcome of a won round: one more impression for
	// the user, plus a click if clicked is true.
	Observe(userID int, clicked bool)

	// Stats returns the recorded impression and click counts for the user.
	Stats(userID int) (impressions, clicks uint64)
}

// userStats tracks per-user observation counts for a single strategy.
// Invariant: impressions >= clicks at all times.
type userStats struct {
	impressions []uint64
	clicks      []uint64
}

func newUserStats(numUsers int) userStats {
	return userStats{
		impressions: make([]uint64, numUsers),
		clicks:      make([]uint64, numUsers),
	}
}

func (s *userStats) observe(userID int, clicked bool) {
	s.impressions[userID]++
	if clicked {
		s.clicks[userID]++
	}
}

// rate returns clicks/impressions, or 0 for an unobserved user.
func (s *userStats) rate(userID int) float64 {
	if s.impressions[userID] == 0 {
		return 0
	}
	return float64(s.clicks[userID]) / float64(s.impressions[userID])
}

// NewStrategy constructs a strategy by name: "ucb" or "thompson".
func NewStrategy(name string, numUsers int, numRounds int, randSource core.RandSource) (Strategy, error) {
	switch name {
	case "ucb":
		return NewUCBStrategy(numUsers, numRounds), nil
	case "thompson":
		return NewThompsonStrategy(numUsers, randSource), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want ucb or thompson)", name)
	}
}
