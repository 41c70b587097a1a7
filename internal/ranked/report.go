package ranked

import (
	"github.com/derekprior/leaguesim/internal/simerr"
)

// Projection is one team's distribution over all trials.
type Projection struct {
	Team string
	// Positions[i] counts the trials the team finished in position i+1.
	Positions    []int
	Champion     float64
	TopK         float64
	Promoted     float64
	Relegated    float64
	Playoff      float64
	MeanPoints   float64
	MeanPosition float64
}

// PositionProbability returns the share of trials the team finished in
// the 1-based position pos.
func (p Projection) PositionProbability(pos int) float64 {
	if pos < 1 || pos > len(p.Positions) {
		return 0
	}
	total := 0
	for _, n := range p.Positions {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(p.Positions[pos-1]) / float64(total)
}

// Report aggregates a ranked simulation. Projections are ordered by mean
// finishing position, best first; ties keep team order.
type Report struct {
	ID          string
	Trials      int
	Top         int
	Projections []Projection
}

func (r *Report) Projection(team string) (Projection, error) {
	for _, p := range r.Projections {
		if p.Team == team {
			return p, nil
		}
	}
	return Projection{}, simerr.Lookupf("no projection for team %q", team)
}

// Favourite returns the team most often champion.
func (r *Report) Favourite() string {
	best := -1.0
	var team string
	for _, p := range r.Projections {
		if p.Champion > best {
			best, team = p.Champion, p.Team
		}
	}
	return team
}
