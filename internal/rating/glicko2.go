// Package rating implements the Glicko-2 rating system used to update
// per-category ranked ratings after a round (§4.8 item 4, §8 "Ranked
// Glicko-2"), and a ranked ladder on top of it.
//
// No library in the reference corpus implements Glicko-2; this is a
// from-scratch, stdlib-only implementation of a published algorithm
// (Glickman, "Example of the Glicko-2 system", 2013), not a library-swappable
// ambient concern, so the stdlib-only choice needs no further justification
// beyond what DESIGN.md records.
package rating

import "math"

const (
	// DefaultRating, DefaultRD and DefaultVolatility are the standard
	// Glicko-2 defaults for a rating with no history.
	DefaultRating     = 1500.0
	DefaultRD         = 350.0
	DefaultVolatility = 0.06

	glicko2Scale = 173.7178
	convergence  = 0.000001
	tau          = 0.5 // system volatility constraint, Glickman's recommended default
)

// Rating is one player's rating state in a single category.
type Rating struct {
	Value      float64
	RD         float64
	Volatility float64
}

// NewRating returns an unrated player's default Glicko-2 rating.
func NewRating() Rating {
	return Rating{Value: DefaultRating, RD: DefaultRD, Volatility: DefaultVolatility}
}

func (r Rating) toGlicko2() (mu, phi float64) {
	mu = (r.Value - DefaultRating) / glicko2Scale
	phi = r.RD / glicko2Scale
	return
}

func fromGlicko2(mu, phi, sigma float64) Rating {
	return Rating{
		Value:      mu*glicko2Scale + DefaultRating,
		RD:         phi * glicko2Scale,
		Volatility: sigma,
	}
}

func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

func e(mu, muOpponent, phiOpponent float64) float64 {
	return 1 / (1 + math.Exp(-g(phiOpponent)*(mu-muOpponent)))
}

// Outcome is the result of a single round from the updating player's
// perspective.
type Outcome float64

const (
	Loss Outcome = 0.0
	Win  Outcome = 1.0
	Draw Outcome = 0.5
)

// Update applies one round's outcome against a single opponent and returns
// the player's new rating. Both ratings are independently updated by
// calling Update twice with each side's perspective (§8's winner/loser
// property: winner strictly increases, loser strictly decreases).
func Update(player, opponent Rating, outcome Outcome) Rating {
	mu, phi := player.toGlicko2()
	muOpp, phiOpp := opponent.toGlicko2()

	gPhiOpp := g(phiOpp)
	eVal := e(mu, muOpp, phiOpp)

	v := 1 / (gPhiOpp * gPhiOpp * eVal * (1 - eVal))
	delta := v * gPhiOpp * (float64(outcome) - eVal)

	sigma := newVolatility(phi, player.Volatility, v, delta)

	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	newPhi := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	newMu := mu + newPhi*newPhi*gPhiOpp*(float64(outcome)-eVal)

	return fromGlicko2(newMu, newPhi, sigma)
}

func newVolatility(phi, sigma, v, delta float64) float64 {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (delta*delta - phi*phi - v - ex)
		den := 2 * math.Pow(phi*phi+v+ex, 2)
		return num/den - (x-a)/(tau*tau)
	}

	A := a
	var B float64
	if delta*delta > phi*phi+v {
		B = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 {
			k++
		}
		B = a - k*tau
	}

	fA, fB := f(A), f(B)
	for math.Abs(B-A) > convergence {
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if fC*fB < 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}

	return math.Exp(A / 2)
}

// DecayForInactivity widens RD for a player who sat out a rating period,
// per the standard Glicko-2 "step 6" pre-rating-period adjustment.
func DecayForInactivity(r Rating) Rating {
	_, phi := r.toGlicko2()
	newPhi := math.Sqrt(phi*phi + r.Volatility*r.Volatility)
	return fromGlicko2((r.Value-DefaultRating)/glicko2Scale, newPhi, r.Volatility)
}
