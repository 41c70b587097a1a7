package match

import (
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/team"
)

// Engine resolves fixtures between named teams: it looks strengths up,
// simulates and attaches the result. One Engine belongs to one goroutine
// because it shares its Rand.
type Engine struct {
	Sim           *Simulator
	Strengths     team.StrengthProvider
	HomeAdvantage float64
	Rand          Rand
}

// Play resolves f. Byes are skipped. A fixture that already has a result is
// rejected before any random number is drawn.
func (e *Engine) Play(f *Fixture) error {
	if f.IsBye() {
		return nil
	}
	if f.Resolved() {
		return simerr.Statef("fixture %s already resolved as %s", f.ID, f.Result)
	}
	h, a, err := e.strengths(f.Home, f.Away)
	if err != nil {
		return err
	}
	r, err := e.Sim.Simulate(h, a, e.HomeAdvantage, e.Rand)
	if err != nil {
		return err
	}
	return f.Resolve(r)
}

// ExtraTime plays extra time at home's venue and returns the goals scored
// in it.
func (e *Engine) ExtraTime(home, away string) (Result, error) {
	h, a, err := e.strengths(home, away)
	if err != nil {
		return Result{}, err
	}
	return e.Sim.ExtraTime(h, a, e.HomeAdvantage, e.Rand)
}

// Shootout reports whether first wins a penalty shootout against second.
func (e *Engine) Shootout(first, second string) (bool, error) {
	f, s, err := e.strengths(first, second)
	if err != nil {
		return false, err
	}
	return e.Sim.Shootout(f, s, e.Rand)
}

// Strength returns a team's strength from the provider.
func (e *Engine) Strength(id string) (float64, error) {
	if e.Strengths == nil {
		return 0, simerr.Configf("no strength provider")
	}
	return e.Strengths.Strength(id)
}

func (e *Engine) strengths(home, away string) (float64, float64, error) {
	if e.Sim == nil {
		return 0, 0, simerr.Configf("no simulator")
	}
	h, err := e.Strength(home)
	if err != nil {
		return 0, 0, err
	}
	a, err := e.Strength(away)
	if err != nil {
		return 0, 0, err
	}
	return h, a, nil
}
