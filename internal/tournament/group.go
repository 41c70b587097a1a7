package tournament

import (
	"slices"

	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/schedule"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
)

type GroupConfig struct {
	Size       int
	Qualifiers int
	Legs       int
	Chain      standings.Chain
}

// Group is one round-robin pool inside a group stage.
type Group struct {
	Name   string
	Teams  []string
	Rounds []schedule.Round
	Table  *standings.Table
}

// GroupStage splits seeded teams into groups by pots, plays a round-robin in
// each group and emits the top finishers.
type GroupStage struct {
	id     string
	cfg    GroupConfig
	groups []*Group
	played int
	total  int
}

// NewGroupStage distributes seeds over len(seeds)/Size groups: seed i goes to
// group i mod G, so every pot of G consecutive seeds feeds one team into each
// group.
func NewGroupStage(id string, seeds []string, cfg GroupConfig) (*GroupStage, error) {
	if cfg.Size < 2 {
		return nil, simerr.Configf("group stage %s: group size must be at least 2", id)
	}
	if len(seeds) < cfg.Size || len(seeds)%cfg.Size != 0 {
		return nil, simerr.Configf("group stage %s: %d teams do not split into groups of %d", id, len(seeds), cfg.Size)
	}
	if cfg.Qualifiers < 1 || cfg.Qualifiers > cfg.Size {
		return nil, simerr.Configf("group stage %s: qualifiers must be between 1 and %d", id, cfg.Size)
	}
	if cfg.Legs == 0 {
		cfg.Legs = 2
	}
	if cfg.Chain == nil {
		cfg.Chain = standings.DefaultChain()
	}

	g := &GroupStage{id: id, cfg: cfg}
	count := len(seeds) / cfg.Size
	for i := range count {
		g.groups = append(g.groups, &Group{Name: groupName(i)})
	}
	for i, s := range seeds {
		grp := g.groups[i%count]
		grp.Teams = append(grp.Teams, s)
	}
	for _, grp := range g.groups {
		rounds, err := schedule.RoundRobin(grp.Teams, cfg.Legs)
		if err != nil {
			return nil, err
		}
		table, err := standings.New(grp.Teams)
		if err != nil {
			return nil, err
		}
		grp.Rounds = rounds
		grp.Table = table
		g.total = max(g.total, len(rounds))
	}
	return g, nil
}

func (g *GroupStage) Groups() []*Group {
	return g.groups
}

// TotalRounds is the number of matchdays in the stage.
func (g *GroupStage) TotalRounds() int {
	return g.total
}

func (g *GroupStage) Complete() bool {
	return g.played == g.total
}

// Round returns the fixtures of one matchday across all groups.
func (g *GroupStage) Round(n int) ([]*match.Fixture, error) {
	if n < 1 || n > g.total {
		return nil, simerr.Lookupf("group stage %s has no round %d", g.id, n)
	}
	var out []*match.Fixture
	for _, grp := range g.groups {
		if n <= len(grp.Rounds) {
			out = append(out, grp.Rounds[n-1].Fixtures...)
		}
	}
	return out, nil
}

// PlayRound resolves the next matchday in every group and records the
// results in the group tables.
func (g *GroupStage) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	if g.Complete() {
		return nil, simerr.Statef("group stage %s is complete", g.id)
	}
	fixtures, err := g.Round(g.played + 1)
	if err != nil {
		return nil, err
	}
	for _, grp := range g.groups {
		if g.played >= len(grp.Rounds) {
			continue
		}
		for _, f := range grp.Rounds[g.played].Fixtures {
			if f.IsBye() {
				continue
			}
			if err := e.Play(f); err != nil {
				return nil, err
			}
			if err := grp.Table.Apply(f); err != nil {
				return nil, err
			}
		}
	}
	g.played++
	return fixtures, nil
}

// GroupTable is a ranked snapshot of one group.
type GroupTable struct {
	Name string
	Rows []standings.Row
}

// Tables returns every group table ranked by the chain.
func (g *GroupStage) Tables() []GroupTable {
	out := make([]GroupTable, len(g.groups))
	for i, grp := range g.groups {
		out[i] = GroupTable{Name: grp.Name, Rows: grp.Table.Ranked(g.cfg.Chain)}
	}
	return out
}

// Qualifiers returns the top finishers of every group ordered for seeding:
// all group winners first, then all runners-up, and so on, each band ranked
// by the chain.
func (g *GroupStage) Qualifiers() ([]string, error) {
	if !g.Complete() {
		return nil, simerr.Statef("group stage %s is not complete", g.id)
	}
	return standings.Teams(g.bands(g.cfg.Qualifiers)), nil
}

// Ranking orders every participant by group position, then by the chain
// across groups.
func (g *GroupStage) Ranking() []standings.Row {
	return g.bands(g.cfg.Size)
}

func (g *GroupStage) bands(depth int) []standings.Row {
	tables := g.Tables()
	var out []standings.Row
	for pos := range depth {
		var band []standings.Row
		for _, t := range tables {
			if pos < len(t.Rows) {
				band = append(band, t.Rows[pos])
			}
		}
		// Head-to-head has no meaning across groups.
		out = append(out, standings.Rank(band, crossGroup(g.cfg.Chain), nil)...)
	}
	return out
}

func crossGroup(c standings.Chain) standings.Chain {
	return slices.DeleteFunc(slices.Clone(c), func(r standings.Rule) bool { return r == standings.HeadToHead })
}

func groupName(i int) string {
	name := ""
	for {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
		if i < 0 {
			return name
		}
	}
}
