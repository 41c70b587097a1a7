// Package match resolves fixtures into scores.
//
// The goal model maps the strength differential of two teams (plus a home
// bonus) to an expected-goal rate per side and draws each side's goals from a
// Poisson distribution. All randomness comes from an injected Rand; nothing in
// this package touches the global math/rand source.
package match

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/derekprior/leaguesim/internal/simerr"
)

// Rand is the random source consumed by the simulator. *math/rand.Rand
// satisfies it, and its Uint64 method makes it a math/rand/v2 Source for
// the goal distribution.
type Rand interface {
	Float64() float64
	Uint64() uint64
}

// Params tunes the goal model.
type Params struct {
	// BaseGoals is the expected goals of either side when strengths are equal
	// and there is no home advantage.
	BaseGoals float64
	// Scale is the strength difference that multiplies the rate by e.
	Scale float64
	// MinRate and MaxRate clamp the expected goals per side.
	MinRate float64
	MaxRate float64
}

// DefaultHomeAdvantage is the strength bonus given to the home side when the
// configuration does not set one.
const DefaultHomeAdvantage = 3.0

// DefaultParams returns the tuned defaults: 1.35 goals per side at parity,
// rates in [0.15, 6].
func DefaultParams() Params {
	return Params{
		BaseGoals: 1.35,
		Scale:     25,
		MinRate:   0.15,
		MaxRate:   6,
	}
}

// Simulator turns two strengths into a Result.
type Simulator struct {
	params Params
}

// NewSimulator validates params and returns a Simulator.
func NewSimulator(p Params) (*Simulator, error) {
	switch {
	case !finite(p.BaseGoals) || p.BaseGoals <= 0:
		return nil, simerr.Configf("base goals must be positive, got %v", p.BaseGoals)
	case !finite(p.Scale) || p.Scale <= 0:
		return nil, simerr.Configf("strength scale must be positive, got %v", p.Scale)
	case !finite(p.MinRate) || p.MinRate <= 0:
		return nil, simerr.Configf("min rate must be positive, got %v", p.MinRate)
	case !finite(p.MaxRate) || p.MaxRate < p.MinRate:
		return nil, simerr.Configf("max rate %v must be >= min rate %v", p.MaxRate, p.MinRate)
	}
	return &Simulator{params: p}, nil
}

// Default returns a Simulator using DefaultParams.
func Default() *Simulator {
	return &Simulator{params: DefaultParams()}
}

func (s *Simulator) Params() Params {
	return s.params
}

// Rates returns the expected goals of each side.
func (s *Simulator) Rates(home, away, homeAdvantage float64) (float64, float64, error) {
	if err := checkInputs(home, away, homeAdvantage); err != nil {
		return 0, 0, err
	}
	diff := (home + homeAdvantage - away) / s.params.Scale
	return s.rate(diff), s.rate(-diff), nil
}

// Simulate resolves a full match.
func (s *Simulator) Simulate(home, away, homeAdvantage float64, rng Rand) (Result, error) {
	return s.play(home, away, homeAdvantage, 1, rng)
}

// ExtraTime plays thirty extra minutes, a third of the regular rate, and
// returns only the goals scored during them.
func (s *Simulator) ExtraTime(home, away, homeAdvantage float64, rng Rand) (Result, error) {
	return s.play(home, away, homeAdvantage, 1.0/3.0, rng)
}

// Shootout settles a level tie with a coin flip weighted by strength. It
// reports whether the first team wins.
func (s *Simulator) Shootout(first, second float64, rng Rand) (bool, error) {
	if err := checkInputs(first, second, 0); err != nil {
		return false, err
	}
	if rng == nil {
		return false, simerr.Configf("random source is required")
	}
	p := (first + 1) / (first + second + 2)
	return rng.Float64() < p, nil
}

func (s *Simulator) play(home, away, homeAdvantage, fraction float64, rng Rand) (Result, error) {
	if rng == nil {
		return Result{}, simerr.Configf("random source is required")
	}
	lh, la, err := s.Rates(home, away, homeAdvantage)
	if err != nil {
		return Result{}, err
	}
	return Result{
		HomeGoals: poisson(lh*fraction, rng),
		AwayGoals: poisson(la*fraction, rng),
	}, nil
}

func (s *Simulator) rate(diff float64) float64 {
	r := s.params.BaseGoals * math.Exp(diff)
	return math.Min(s.params.MaxRate, math.Max(s.params.MinRate, r))
}

func poisson(lambda float64, rng Rand) int {
	return int(distuv.Poisson{Lambda: lambda, Src: rng}.Rand())
}

func checkInputs(home, away, homeAdvantage float64) error {
	if !finite(home) || home < 0 {
		return simerr.Configf("home strength must be finite and non-negative, got %v", home)
	}
	if !finite(away) || away < 0 {
		return simerr.Configf("away strength must be finite and non-negative, got %v", away)
	}
	if !finite(homeAdvantage) {
		return simerr.Configf("home advantage must be finite, got %v", homeAdvantage)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
