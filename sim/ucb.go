package sim

import "math"

// UCBConfig holds the tunables of the upper-confidence-bound strategy.
type UCBConfig struct {
	// ExplorationFactor scales the confidence bonus. Higher values favor
	// exploration over exploitation.
	ExplorationFactor float64

	// ColdStartEstimate is the neutral prior returned for users with no
	// recorded impressions.
	ColdStartEstimate float64
}

// DefaultUCBConfig matches the tuning the simulation was calibrated with.
func DefaultUCBConfig() UCBConfig {
	return UCBConfig{
		ExplorationFactor: 2.0,
		ColdStartEstimate: 0.5,
	}
}

// UCBStrategy estimates click probabilities with an upper confidence bound:
// the observed click rate plus an uncertainty bonus that shrinks as a user
// accumulates impressions. Under-sampled users are bid up, so every user's
// true rate is eventually learned while the cost of exploration stays bounded.
type UCBStrategy struct {
	config    UCBConfig
	stats     userStats
	numRounds int

	// estimateCalls counts Estimate invocations and stands in for the
	// current round number when scaling the exploration terms.
	estimateCalls int
}

// NewUCBStrategy creates a UCB strategy with default tuning, sized for
// numUsers and an expected run of numRounds rounds.
func NewUCBStrategy(numUsers, numRounds int) *UCBStrategy {
	return NewUCBStrategyWithConfig(numUsers, numRounds, DefaultUCBConfig())
}

// NewUCBStrategyWithConfig creates a UCB strategy with explicit tuning.
func NewUCBStrategyWithConfig(numUsers, numRounds int, config UCBConfig) *UCBStrategy {
	return &UCBStrategy{
		config:    config,
		stats:     newUserStats(numUsers),
		numRounds: numRounds,
	}
}

// Estimate returns the UCB estimate for the user. Cold start (zero
// impressions) returns the configured neutral prior plus an exploration
// bonus that decays as the run progresses.
func (u *UCBStrategy) Estimate(userID int) float64 {
	u.estimateCalls++

	impressions := u.stats.impressions[userID]

	if impressions == 0 {
		decay := 1.0 / (1.0 + float64(u.estimateCalls)/float64(u.numRounds))
		bonus := u.config.ExplorationFactor * decay
		return clampEstimate(u.config.ColdStartEstimate + bonus)
	}

	observedRate := u.stats.rate(userID)
	logTerm := math.Log(float64(u.estimateCalls) + 1)
	bonus := u.config.ExplorationFactor * math.Sqrt(logTerm/float64(impressions+1))

	return clampEstimate(observedRate + bonus)
}

// Observe records the outcome of a won round.
func (u *UCBStrategy) Observe(userID int, clicked bool) {
	u.stats.observe(userID, clicked)
}

// Stats returns the recorded impression and click counts for the user.
func (u *UCBStrategy) Stats(userID int) (impressions, clicks uint64) {
	return u.stats.impressions[userID], u.stats.clicks[userID]
}

// clampEstimate guards against negative or non-finite artifacts from the
// bound computation.
func clampEstimate(estimate float64) float64 {
	if math.IsNaN(estimate) || math.IsInf(estimate, 0) || estimate < 0 {
		return 0
	}
	return estimate
}
