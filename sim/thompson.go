package sim

import (
	"math"

	"github.com/cloudx-io/auctionsim/core"
)

// ThompsonStrategy estimates click probabilities by posterior sampling: each
// estimate is a draw from the Beta(clicks+1, impressions-clicks+1) posterior
// over the user's unknown click rate. The sampling noise itself balances
// exploration and exploitation, so no explicit bonus term is needed; a user
// with no history samples from the uniform Beta(1, 1) prior.
type ThompsonStrategy struct {
	stats userStats
	rand  core.RandSource
}

// NewThompsonStrategy creates a Thompson Sampling strategy sized for numUsers.
func NewThompsonStrategy(numUsers int, randSource core.RandSource) *ThompsonStrategy {
	return &ThompsonStrategy{
		stats: newUserStats(numUsers),
		rand:  randSource,
	}
}

// Estimate draws from the user's Beta posterior. The draw always lies in
// [0, 1], so no additional clamping is required.
func (t *ThompsonStrategy) Estimate(userID int) float64 {
	alpha := float64(t.stats.clicks[userID]) + 1
	beta := float64(t.stats.impressions[userID]-t.stats.clicks[userID]) + 1
	return sampleBeta(alpha, beta, t.rand)
}

// Observe records the outcome of a won round.
func (t *ThompsonStrategy) Observe(userID int, clicked bool) {
	t.stats.observe(userID, clicked)
}

// Stats returns the recorded impression and click counts for the user.
func (t *ThompsonStrategy) Stats(userID int) (impressions, clicks uint64) {
	return t.stats.impressions[userID], t.stats.clicks[userID]
}

// sampleBeta draws from Beta(a, b) as Ga/(Ga+Gb) with Ga ~ Gamma(a, 1)
// and Gb ~ Gamma(b, 1).
func sampleBeta(a, b float64, rng core.RandSource) float64 {
	ga := sampleGamma(a, rng)
	gb := sampleGamma(b, rng)
	if ga+gb == 0 {
		return 0
	}
	return ga / (ga + gb)
}

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang
// squeeze method. Shapes below 1 are boosted via
// Gamma(a) = Gamma(a+1) * U^(1/a).
func sampleGamma(shape float64, rng core.RandSource) float64 {
	if shape < 1 {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(shape+1, rng) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		x := sampleNormal(rng)
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v

		u := rng.Float64()
		if u == 0 {
			continue
		}
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}

// sampleNormal draws from the standard normal distribution via Box-Muller.
func sampleNormal(rng core.RandSource) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}
