package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// RandSource provides random number generation for user selection and
// tie-breaking. This interface enables dependency injection for
// deterministic simulation runs; *math/rand.Rand satisfies it.
type RandSource interface {
	// Intn returns a random integer in [0, n). Panics if n <= 0.
	Intn(n int) int

	// Float64 returns a random float64 in [0.0, 1.0).
	Float64() float64
}

// cryptoRandSource wraps crypto/rand for use when no seeded source is supplied
type cryptoRandSource struct{}

// Intn returns a cryptographically secure random integer in [0, n).
// Panics if n <= 0 (programmer error).
func (cryptoRandSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("cryptoRandSource.Intn: n must be positive, got %d", n))
	}
	// rand.Int does not error when using rand.Reader
	// https://pkg.go.dev/crypto/rand#Int
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(nBig.Int64())
}

// Float64 returns a cryptographically secure random float64 in [0.0, 1.0).
func (c cryptoRandSource) Float64() float64 {
	return float64(c.Intn(1<<53)) / (1 << 53)
}

// defaultRandSource provides a cryptographically secure random source
var defaultRandSource RandSource = cryptoRandSource{}

// RankBids returns the bids ordered from highest to lowest amount. The input
// slice is not modified. Groups of equal amounts are shuffled with randSource
// so tied bidders have an equal chance at any rank; a seeded source makes the
// shuffle reproducible. Bids are ranked as submitted, one per bidder under
// the round protocol; Settle resolves any duplicate bidders.
func RankBids(bids []Bid, randSource RandSource) []Bid {
	ranked := make([]Bid, len(bids))
	copy(ranked, bids)

	// Stable sort keeps submission order within ties until the shuffle
	// below decides their final order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount > ranked[j].Amount
	})

	if randSource == nil {
		randSource = defaultRandSource
	}

	// Break ties randomly: shuffle each group of equal amounts with Fisher-Yates
	i := 0
	for i < len(ranked) {
		amount := ranked[i].Amount
		j := i + 1
		for j < len(ranked) && ranked[j].Amount == amount {
			j++
		}

		if j-i > 1 {
			for k := j - 1; k > i; k-- {
				randIdx := i + randSource.Intn(k-i+1)
				ranked[k], ranked[randIdx] = ranked[randIdx], ranked[k]
			}
		}

		i = j
	}

	return ranked
}
