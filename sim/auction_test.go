package sim

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/auctionsim/core"
)

// scriptedBidder always bids a fixed amount and records the notifications it
// receives, standing in for a learning bidder in protocol tests.
type scriptedBidder struct {
	id     string
	amount float64

	bidCalls  int
	wins      int
	losses    int
	lastPrice float64

	notifyErr error
}

func newScriptedBidder(id string, amount float64) *scriptedBidder {
	return &scriptedBidder{id: id, amount: amount}
}

func (s *scriptedBidder) ID() string { return s.id }

func (s *scriptedBidder) Bid(userID int) float64 {
	s.bidCalls++
	return s.amount
}

func (s *scriptedBidder) Notify(won bool, clearingPrice float64, clicked bool) error {
	if s.notifyErr != nil {
		return s.notifyErr
	}
	if won {
		s.wins++
	} else {
		s.losses++
	}
	s.lastPrice = clearingPrice
	return nil
}

func certainClicker(t *testing.T) []*User {
	t.Helper()
	return []*User{NewUserWithProbability(1.0, rand.New(rand.NewSource(1)))}
}

func TestAuction_SecondPriceScenario(t *testing.T) {
	// 1 user with probability 1.0, 2 bidders, 1 round: the higher bidder
	// wins, pays the lower bid, and gains 1 - second_price.
	high := newScriptedBidder("high", 0.5)
	low := newScriptedBidder("low", 0.3)

	auction, err := NewAuction(certainClicker(t), []Participant{high, low}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	check.NoError(t, auction.ExecuteRound())

	check.Equal(t, 1, high.wins)
	check.Equal(t, 0, low.wins)
	check.Equal(t, 1, low.losses)
	check.Equal(t, 0.3, high.lastPrice)
	check.Equal(t, 0.3, low.lastPrice)

	// Click was certain, so the winner's balance is exactly 1 - 0.3
	check.Equal(t, 0.7, auction.Balance("high"))
	check.Equal(t, 0.0, auction.Balance("low"))
}

func TestAuction_SingleBidderAlwaysPaysZero(t *testing.T) {
	solo := newScriptedBidder("solo", 0.5)

	auction, err := NewAuction(certainClicker(t), []Participant{solo}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	check.NoError(t, auction.Run(50))

	check.Equal(t, 50, solo.wins)
	check.Equal(t, 0.0, solo.lastPrice)
	// Every round: certain click, zero price
	check.Equal(t, 50.0, auction.Balance("solo"))
}

func TestAuction_BalanceConservationPerRound(t *testing.T) {
	// Only the winner's balance moves, and by exactly reward - price.
	a := newScriptedBidder("a", 0.4)
	b := newScriptedBidder("b", 0.2)
	c := newScriptedBidder("c", 0.1)

	users := []*User{NewUserWithProbability(0.5, rand.New(rand.NewSource(3)))}
	auction, err := NewAuction(users, []Participant{a, b, c}, rand.New(rand.NewSource(3)))
	assert.NoError(t, err)

	for round := 0; round < 100; round++ {
		before := auction.FinalBalances()
		check.NoError(t, auction.ExecuteRound())
		after := auction.FinalBalances()

		// a always wins at price 0.2; its delta is 0.8 or -0.2
		deltaA := after["a"] - before["a"]
		check.True(t, math.Abs(deltaA-0.8) < 1e-9 || math.Abs(deltaA+0.2) < 1e-9)

		check.Equal(t, before["b"], after["b"])
		check.Equal(t, before["c"], after["c"])
	}
}

func TestAuction_TiedTopBidsClearAtTopAmount(t *testing.T) {
	a := newScriptedBidder("a", 0.4)
	b := newScriptedBidder("b", 0.4)

	auction, err := NewAuction(certainClicker(t), []Participant{a, b}, rand.New(rand.NewSource(5)))
	assert.NoError(t, err)

	check.NoError(t, auction.ExecuteRound())

	check.Equal(t, 1, a.wins+b.wins)
	check.Equal(t, 0.4, a.lastPrice)
	check.Equal(t, 0.4, b.lastPrice)
}

func TestAuction_NotifyFailureAbortsRound(t *testing.T) {
	good := newScriptedBidder("good", 0.5)
	bad := newScriptedBidder("bad", 0.3)
	bad.notifyErr = fmt.Errorf("no pending bid")

	auction, err := NewAuction(certainClicker(t), []Participant{good, bad}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	check.Error(t, auction.ExecuteRound())
}

func TestAuction_DisqualifiedBidderSitsOut(t *testing.T) {
	// Drive one bidder under the floor, then verify it is no longer asked
	// to bid while the other keeps winning at price 0.
	loser := newScriptedBidder("loser", 0.9)
	steady := newScriptedBidder("steady", 0.5)

	users := []*User{NewUserWithProbability(0.0, rand.New(rand.NewSource(1)))}
	auction, err := NewAuction(users, []Participant{loser, steady}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	// loser wins every round at price 0.5, never gets a click: -0.5/round.
	// 2001 rounds drive it to -1000.5, below the -1000 floor.
	check.NoError(t, auction.Run(2001))
	check.True(t, auction.Balance("loser") < DisqualificationFloor)

	bidCallsBefore := loser.bidCalls
	check.NoError(t, auction.ExecuteRound())

	check.Equal(t, bidCallsBefore, loser.bidCalls)
	check.Equal(t, 1, steady.wins)
	check.Equal(t, 0.0, steady.lastPrice)
}

func TestAuction_NoActiveBiddersRoundCountsButSettlesNothing(t *testing.T) {
	a := newScriptedBidder("a", 0.4)
	b := newScriptedBidder("b", 0.2)

	auction, err := NewAuction(certainClicker(t), []Participant{a, b}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	// Every bidder sits below the disqualification floor
	auction.balances["a"] = DisqualificationFloor - 1
	auction.balances["b"] = DisqualificationFloor - 1

	check.NoError(t, auction.ExecuteRound())

	// The round counts, but nobody is asked to bid and no balance moves
	check.Equal(t, 1, auction.Rounds())
	check.Equal(t, 0, a.bidCalls)
	check.Equal(t, 0, b.bidCalls)
	check.Equal(t, 0, a.wins+a.losses)
	check.Equal(t, DisqualificationFloor-1, auction.Balance("a"))
	check.Equal(t, DisqualificationFloor-1, auction.Balance("b"))

	// History still gains one sample per bidder for the empty round
	check.Equal(t, 1, len(auction.History("a")))
	check.Equal(t, 1, len(auction.History("b")))
}

func TestAuction_LedgersAgreeWhenLaterNotifyFails(t *testing.T) {
	// The central ledger settles in the same pass as the winner's own, so
	// a losing bidder failing afterward cannot leave the two apart.
	winner := NewBidder(1, newFixedStrategy(1, 1.0)) // bids 0.9 after shading
	bad := newScriptedBidder("bad", 0.3)
	bad.notifyErr = fmt.Errorf("no pending bid")

	auction, err := NewAuction(certainClicker(t), []Participant{winner, bad}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	check.Error(t, auction.ExecuteRound())

	// Certain click at clearing price 0.3: both ledgers settled to 0.7
	check.Equal(t, 0.7, winner.Balance())
	check.Equal(t, 0.7, auction.Balance(winner.ID()))
}

func TestAuction_RequiresUsersAndBidders(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewAuction(nil, []Participant{newScriptedBidder("a", 0.1)}, rng)
	check.Error(t, err)

	_, err = NewAuction(certainClicker(t), nil, rng)
	check.Error(t, err)
}

func TestAuction_HistoryTracksEveryBidderPerRound(t *testing.T) {
	a := newScriptedBidder("a", 0.4)
	b := newScriptedBidder("b", 0.2)

	auction, err := NewAuction(certainClicker(t), []Participant{a, b}, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	check.NoError(t, auction.Run(25))

	check.Equal(t, 25, len(auction.History("a")))
	check.Equal(t, 25, len(auction.History("b")))
	check.Equal(t, auction.Balance("a"), auction.History("a")[24])
}

// runSimulation runs a full learning-bidder simulation and returns final
// balances keyed by bidder position.
func runSimulation(t *testing.T, seed int64, numUsers, numBidders, rounds int) []float64 {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))

	users := make([]*User, numUsers)
	for i := range users {
		users[i] = NewUser(rng)
	}

	participants := make([]Participant, numBidders)
	bidders := make([]*Bidder, numBidders)
	for i := range participants {
		name := "ucb"
		if i%2 == 1 {
			name = "thompson"
		}
		strategy, err := NewStrategy(name, numUsers, rounds, rng)
		assert.NoError(t, err)
		bidders[i] = NewBidder(numUsers, strategy)
		participants[i] = bidders[i]
	}

	auction, err := NewAuction(users, participants, rng)
	assert.NoError(t, err)
	assert.NoError(t, auction.Run(rounds))

	balances := make([]float64, numBidders)
	for i, b := range bidders {
		balances[i] = auction.Balance(b.ID())

		// Invariant holds for every bidder and user after the run
		for userID := 0; userID < numUsers; userID++ {
			impressions, clicks := b.Strategy().Stats(userID)
			check.True(t, impressions >= clicks)
		}
	}
	return balances
}

func TestAuction_FixedSeedIsReproducible(t *testing.T) {
	// 10 users, 5 bidders, 100 rounds: same seed, identical final balances
	first := runSimulation(t, 1234, 10, 5, 100)
	second := runSimulation(t, 1234, 10, 5, 100)

	check.Equal(t, first, second)
}

func TestAuction_LearnedRateConvergesToTruth(t *testing.T) {
	// Statistical: with a single user of known propensity, any bidder that
	// won often enough observes a click rate near the truth.
	const truth = 0.7
	rng := rand.New(rand.NewSource(77))

	users := []*User{NewUserWithProbability(truth, rng)}

	strategyA := NewUCBStrategy(1, 5000)
	strategyB := NewThompsonStrategy(1, rng)
	a := NewBidder(1, strategyA)
	b := NewBidder(1, strategyB)

	auction, err := NewAuction(users, []Participant{a, b}, rng)
	assert.NoError(t, err)
	assert.NoError(t, auction.Run(5000))

	for _, strategy := range []Strategy{strategyA, strategyB} {
		impressions, clicks := strategy.Stats(0)
		if impressions < 200 {
			continue
		}
		rate := float64(clicks) / float64(impressions)
		check.True(t, math.Abs(rate-truth) < 0.1)
	}

	// Between them the two bidders won every round
	impA, _ := strategyA.Stats(0)
	impB, _ := strategyB.Stats(0)
	check.Equal(t, uint64(5000), impA+impB)
}

// Guard against accidental drift: uuid-identified learning bidders must all
// register distinct balances entries.
func TestAuction_FinalBalancesCoverAllBidders(t *testing.T) {
	balances := runSimulation(t, 9, 3, 4, 50)
	check.Equal(t, 4, len(balances))
}

var _ Participant = (*Bidder)(nil)
var _ core.RandSource = (*rand.Rand)(nil)
