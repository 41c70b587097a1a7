// Package season moves teams between tiers at season boundaries and drives
// multi-season simulations.
package season

import (
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/tournament"
)

// Rules are a tier's movement settings. Promote and Relegate are totals
// for the tier, already multiplied out for per-group tiers.
type Rules struct {
	Promote  int
	Relegate int
	// Groups is the number of groups when places count per group, else 0.
	Groups  int
	Playoff *PlayoffRules
}

// PlayoffRules configure the knockout for promotion places the automatic
// spots do not fill.
type PlayoffRules struct {
	// Teams is the field size of one play-off.
	Teams int
	// PerGroup plays one play-off inside each group.
	PerGroup bool
	Bracket  tournament.BracketConfig
}

// Boundary is a promotion/relegation link between two adjacent tiers.
type Boundary struct {
	Upper string
	Lower string
	// Slots is the number of promotion places decided by play-off.
	Slots int
}

// Graph is the read-only tier structure: who promotes to and relegates to
// whom.
type Graph struct {
	tiers []string
	up    map[string]string
	down  map[string]string
	rules map[string]Rules
}

// NewGraph validates the tier links. Every link must be mirrored, the
// structure must be acyclic, and each boundary must balance: the lower tier
// promotes at most as many teams automatically as the upper relegates, with
// a play-off covering any difference.
func NewGraph(tiers []config.Tier) (*Graph, error) {
	g := &Graph{
		up:    make(map[string]string),
		down:  make(map[string]string),
		rules: make(map[string]Rules),
	}
	for _, t := range tiers {
		if _, dup := g.rules[t.ID]; dup {
			return nil, simerr.Configf("duplicate tier %q", t.ID)
		}
		r := Rules{Promote: t.Promote, Relegate: t.Relegate}
		if groups := t.Groups(); groups > 0 {
			r.Groups = groups
			r.Promote *= groups
			r.Relegate *= groups
		}
		if p := t.Playoff; p != nil {
			r.Playoff = &PlayoffRules{
				Teams:    p.Teams,
				PerGroup: r.Groups > 0,
				Bracket: tournament.BracketConfig{
					Legs:      p.Legs,
					FinalLegs: p.FinalLegs,
					AwayGoals: p.AwayGoals,
					ExtraTime: p.ExtraTime,
				},
			}
		}
		g.tiers = append(g.tiers, t.ID)
		g.rules[t.ID] = r
		if t.PromotesTo != "" {
			g.up[t.ID] = t.PromotesTo
		}
		if t.RelegatesTo != "" {
			g.down[t.ID] = t.RelegatesTo
		}
	}

	for id, upper := range g.up {
		if _, ok := g.rules[upper]; !ok {
			return nil, simerr.Configf("tier %q promotes to unknown tier %q", id, upper)
		}
		if g.down[upper] != id {
			return nil, simerr.Configf("tier %q promotes to %q, which does not relegate to it", id, upper)
		}
	}
	for id, lower := range g.down {
		if _, ok := g.rules[lower]; !ok {
			return nil, simerr.Configf("tier %q relegates to unknown tier %q", id, lower)
		}
		if g.up[lower] != id {
			return nil, simerr.Configf("tier %q relegates to %q, which does not promote to it", id, lower)
		}
	}
	for _, id := range g.tiers {
		seen := map[string]bool{id: true}
		for t := g.down[id]; t != ""; t = g.down[t] {
			if seen[t] {
				return nil, simerr.Configf("tier structure has a cycle through %q", id)
			}
			seen[t] = true
		}
	}

	for _, b := range g.Boundaries() {
		upper, lower := g.rules[b.Upper], g.rules[b.Lower]
		switch {
		case lower.Promote > upper.Relegate:
			return nil, simerr.Configf("tier %q promotes %d teams but %q relegates only %d",
				b.Lower, lower.Promote, b.Upper, upper.Relegate)
		case b.Slots > 0 && lower.Playoff == nil:
			return nil, simerr.Configf("tier %q needs a play-off for %d promotion place(s)", b.Lower, b.Slots)
		case b.Slots > 0 && lower.Playoff.PerGroup && b.Slots != lower.Groups:
			return nil, simerr.Configf("tier %q plays %d group play-offs for %d place(s)", b.Lower, lower.Groups, b.Slots)
		case b.Slots > 0 && !lower.Playoff.PerGroup && lower.Playoff.Teams < 2*b.Slots:
			return nil, simerr.Configf("tier %q play-off has %d teams for %d place(s)", b.Lower, lower.Playoff.Teams, b.Slots)
		}
	}
	for id, r := range g.rules {
		if r.Relegate > 0 && g.down[id] == "" {
			return nil, simerr.Configf("tier %q relegates teams but has no lower tier", id)
		}
		if r.Promote > 0 && g.up[id] == "" {
			return nil, simerr.Configf("tier %q promotes teams but has no upper tier", id)
		}
	}
	return g, nil
}

// Tiers returns tier ids in configuration order.
func (g *Graph) Tiers() []string {
	return append([]string(nil), g.tiers...)
}

func (g *Graph) Rules(tier string) (Rules, bool) {
	r, ok := g.rules[tier]
	return r, ok
}

// Boundaries lists every upper/lower pair in configuration order of the
// upper tier.
func (g *Graph) Boundaries() []Boundary {
	var out []Boundary
	for _, id := range g.tiers {
		lower, ok := g.down[id]
		if !ok {
			continue
		}
		slots := g.rules[id].Relegate - g.rules[lower].Promote
		out = append(out, Boundary{Upper: id, Lower: lower, Slots: max(slots, 0)})
	}
	return out
}

// Upper returns the tier a tier promotes to.
func (g *Graph) Upper(tier string) (string, bool) {
	t, ok := g.up[tier]
	return t, ok
}

// Lower returns the tier a tier relegates to.
func (g *Graph) Lower(tier string) (string, bool) {
	t, ok := g.down[tier]
	return t, ok
}
