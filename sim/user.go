// Package sim implements a repeated second-price sealed-bid auction that
// models online-ad placement: users with hidden click propensities, bidders
// that learn those propensities online, and an auction coordinator that runs
// rounds and settles balances.
package sim

import "github.com/cloudx-io/auctionsim/core"

// User models an ad viewer with a fixed, hidden probability of clicking on
// any ad shown to it. The probability is assigned at construction and is
// never exposed; bidders only observe realized click outcomes.
type User struct {
	clickProbability float64
	rand             core.RandSource
}

// NewUser creates a user with a click probability drawn uniformly from [0, 1).
func NewUser(randSource core.RandSource) *User {
	return &User{
		clickProbability: randSource.Float64(),
		rand:             randSource,
	}
}

// NewUserWithProbability creates a user with a fixed click probability,
// used by tests and scripted scenarios.
func NewUserWithProbability(p float64, randSource core.RandSource) *User {
	return &User{
		clickProbability: p,
		rand:             randSource,
	}
}

// ShowAd simulates showing an ad to this user. Each call is an independent
// Bernoulli draw; true means the user clicked.
func (u *User) ShowAd() bool {
	return u.rand.Float64() < u.clickProbability
}
