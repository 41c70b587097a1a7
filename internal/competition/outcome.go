package competition

import (
	"slices"

	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
	"github.com/derekprior/leaguesim/internal/tournament"
)

// Outcome is the settled result of a complete competition. It holds copies
// and can be kept after the competition is discarded.
type Outcome struct {
	CompetitionID string
	Season        int
	Tier          string
	Kind          Kind

	Champion  string
	Standings []standings.Row
	// Placement is every participant in final order.
	Placement []string

	Promoted            []string
	Relegated           []string
	PlayoffParticipants []string
	// PlayoffGroups holds one seeded play-off field per group when places
	// count per group.
	PlayoffGroups   [][]string
	GroupQualifiers []string
	// Qualified maps zone names to the teams that finished inside them.
	Qualified map[string][]string

	Bracket *tournament.BracketResult
	Swiss   *tournament.Qualification
}

// Position returns a team's 1-based final position, or 0.
func (o Outcome) Position(team string) int {
	return slices.Index(o.Placement, team) + 1
}

// Outcome derives the season result. The competition must be Complete.
func (c *Competition) Outcome() (Outcome, error) {
	if c.Status() != Complete {
		return Outcome{}, simerr.Statef("competition %s is %s", c.ID, c.Status())
	}

	placement := slices.Clone(c.format.Placement())
	n := len(placement)
	out := Outcome{
		CompetitionID: c.ID,
		Season:        c.Season,
		Tier:          c.Tier,
		Kind:          c.Kind,
		Standings:     c.format.Ranking(),
		Placement:     placement,
		Qualified:     make(map[string][]string),
	}
	if n > 0 {
		out.Champion = placement[0]
	}

	p, q := c.cfg.Promote, c.cfg.Promote+c.cfg.PlayoffTeams
	if g, ok := c.format.(*groupFormat); ok && c.cfg.PerGroup {
		for _, t := range g.stage.Tables() {
			teams := standings.Teams(t.Rows)
			out.Promoted = append(out.Promoted, teams[:p]...)
			out.PlayoffParticipants = append(out.PlayoffParticipants, teams[p:q]...)
			if q > p {
				out.PlayoffGroups = append(out.PlayoffGroups, slices.Clone(teams[p:q]))
			}
			out.Relegated = append(out.Relegated, teams[len(teams)-c.cfg.Relegate:]...)
		}
	} else {
		out.Promoted = slices.Clone(placement[:p])
		out.PlayoffParticipants = slices.Clone(placement[p:q])
		out.Relegated = slices.Clone(placement[n-c.cfg.Relegate:])
	}
	for _, z := range c.cfg.Zones {
		out.Qualified[z.Name] = slices.Clone(placement[z.From-1 : z.To])
	}

	switch f := c.format.(type) {
	case *knockoutFormat:
		res, err := f.bracket.Result()
		if err != nil {
			return Outcome{}, err
		}
		out.Bracket = &res
	case *groupFormat:
		qs, err := f.stage.Qualifiers()
		if err != nil {
			return Outcome{}, err
		}
		out.GroupQualifiers = qs
	case *swissFormat:
		qual, err := f.swiss.Qualification()
		if err != nil {
			return Outcome{}, err
		}
		out.Swiss = &qual
	}
	return out, nil
}
