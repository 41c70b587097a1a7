// Package team holds club identities and the strength ratings the match
// simulator consumes.
package team

import (
	"math"
	"slices"

	"github.com/derekprior/leaguesim/internal/simerr"
)

// Team is a club. Division is the tier it currently plays in.
type Team struct {
	ID       string
	Name     string
	Division string
}

// StrengthProvider yields the current numeric strength of a team. Strengths
// are finite and non-negative.
type StrengthProvider interface {
	Strength(id string) (float64, error)
}

// SquadChange is a notification that a team's strength changed, e.g. after
// transfers between seasons.
type SquadChange struct {
	Team     string
	Strength float64
}

// Strengths is an immutable snapshot of team strengths. It satisfies
// StrengthProvider and is safe to share between goroutines.
type Strengths map[string]float64

func (s Strengths) Strength(id string) (float64, error) {
	v, ok := s[id]
	if !ok {
		return 0, simerr.Lookupf("team %q has no strength", id)
	}
	return v, nil
}

// Pool is the registry of all clubs in the simulation and their strengths.
// It is owned by a single season driver; hand Snapshot to concurrent
// readers.
type Pool struct {
	order    []string
	teams    map[string]Team
	strength map[string]float64
}

func NewPool() *Pool {
	return &Pool{
		teams:    make(map[string]Team),
		strength: make(map[string]float64),
	}
}

// Add registers a new team.
func (p *Pool) Add(t Team, strength float64) error {
	if t.ID == "" {
		return simerr.Configf("team id must not be empty")
	}
	if _, exists := p.teams[t.ID]; exists {
		return simerr.Statef("team %q already exists", t.ID)
	}
	if err := checkStrength(t.ID, strength); err != nil {
		return err
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	p.order = append(p.order, t.ID)
	p.teams[t.ID] = t
	p.strength[t.ID] = strength
	return nil
}

// Remove drops a team from the pool.
func (p *Pool) Remove(id string) error {
	if _, ok := p.teams[id]; !ok {
		return simerr.Lookupf("team %q not found", id)
	}
	delete(p.teams, id)
	delete(p.strength, id)
	p.order = slices.DeleteFunc(p.order, func(s string) bool { return s == id })
	return nil
}

func (p *Pool) Team(id string) (Team, error) {
	t, ok := p.teams[id]
	if !ok {
		return Team{}, simerr.Lookupf("team %q not found", id)
	}
	return t, nil
}

func (p *Pool) Strength(id string) (float64, error) {
	v, ok := p.strength[id]
	if !ok {
		return 0, simerr.Lookupf("team %q has no strength", id)
	}
	return v, nil
}

// SetDivision records the tier a team plays in.
func (p *Pool) SetDivision(id, division string) error {
	t, ok := p.teams[id]
	if !ok {
		return simerr.Lookupf("team %q not found", id)
	}
	t.Division = division
	p.teams[id] = t
	return nil
}

// Apply records squad changes. All changes are checked before any is
// applied.
func (p *Pool) Apply(changes []SquadChange) error {
	for _, c := range changes {
		if _, ok := p.teams[c.Team]; !ok {
			return simerr.Lookupf("squad change for unknown team %q", c.Team)
		}
		if err := checkStrength(c.Team, c.Strength); err != nil {
			return err
		}
	}
	for _, c := range changes {
		p.strength[c.Team] = c.Strength
	}
	return nil
}

// Teams returns every team in registration order.
func (p *Pool) Teams() []Team {
	out := make([]Team, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.teams[id])
	}
	return out
}

// Division returns the ids of the teams playing in a division, in
// registration order.
func (p *Pool) Division(division string) []string {
	var ids []string
	for _, id := range p.order {
		if p.teams[id].Division == division {
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *Pool) Len() int {
	return len(p.order)
}

// Snapshot copies the current strengths.
func (p *Pool) Snapshot() Strengths {
	s := make(Strengths, len(p.strength))
	for id, v := range p.strength {
		s[id] = v
	}
	return s
}

// Clone returns an independent copy of the pool.
func (p *Pool) Clone() *Pool {
	c := NewPool()
	c.order = slices.Clone(p.order)
	for id, t := range p.teams {
		c.teams[id] = t
	}
	for id, v := range p.strength {
		c.strength[id] = v
	}
	return c
}

func checkStrength(id string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return simerr.Configf("team %q: strength must be finite and non-negative, got %v", id, v)
	}
	return nil
}
