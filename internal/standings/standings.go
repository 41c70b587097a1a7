// Package standings maintains league tables incrementally from resolved
// fixtures and ranks them with a configurable tie-break chain.
package standings

import (
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
)

const formLength = 5

// Row is one team's line in a table.
type Row struct {
	Team         string
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	AwayGoalsFor int
	Points       int
	// Form holds up to the last five results, oldest first, as W, D or L.
	Form string
}

func (r Row) GoalDifference() int {
	return r.GoalsFor - r.GoalsAgainst
}

func (r *Row) record(scored, conceded int, away bool) {
	r.Played++
	r.GoalsFor += scored
	r.GoalsAgainst += conceded
	if away {
		r.AwayGoalsFor += scored
	}
	var mark byte
	switch {
	case scored > conceded:
		r.Won++
		r.Points += 3
		mark = 'W'
	case scored == conceded:
		r.Drawn++
		r.Points++
		mark = 'D'
	default:
		r.Lost++
		mark = 'L'
	}
	r.Form += string(mark)
	if len(r.Form) > formLength {
		r.Form = r.Form[len(r.Form)-formLength:]
	}
}

// Table accumulates results for a fixed set of teams. Every fixture id is
// applied at most once.
type Table struct {
	order   []string
	rows    map[string]*Row
	applied map[string]bool
	ledger  *Ledger
}

// New creates an empty table for the given teams.
func New(teams []string) (*Table, error) {
	if len(teams) == 0 {
		return nil, simerr.Configf("table needs at least one team")
	}
	t := &Table{
		rows:    make(map[string]*Row, len(teams)),
		applied: make(map[string]bool),
		ledger:  &Ledger{},
	}
	for _, id := range teams {
		if id == "" {
			return nil, simerr.Configf("team id must not be empty")
		}
		if id == match.Bye {
			return nil, simerr.Configf("team id %q is reserved", id)
		}
		if _, dup := t.rows[id]; dup {
			return nil, simerr.Configf("duplicate team %q", id)
		}
		t.order = append(t.order, id)
		t.rows[id] = &Row{Team: id}
	}
	return t, nil
}

// Apply adds a resolved fixture to both teams' rows. The table is left
// untouched when an error is returned.
func (t *Table) Apply(f *match.Fixture) error {
	switch {
	case f == nil:
		return simerr.Statef("nil fixture")
	case f.IsBye():
		return simerr.Statef("fixture %s is a bye", f.ID)
	case !f.Resolved():
		return simerr.Statef("fixture %s has no result", f.ID)
	case f.Home == f.Away:
		return simerr.Statef("fixture %s has %s playing itself", f.ID, f.Home)
	case t.applied[f.ID]:
		return simerr.Statef("fixture %s already applied", f.ID)
	}
	home, ok := t.rows[f.Home]
	if !ok {
		return simerr.Statef("fixture %s: team %q is not in this table", f.ID, f.Home)
	}
	away, ok := t.rows[f.Away]
	if !ok {
		return simerr.Statef("fixture %s: team %q is not in this table", f.ID, f.Away)
	}

	res := *f.Result
	home.record(res.HomeGoals, res.AwayGoals, false)
	away.record(res.AwayGoals, res.HomeGoals, true)
	t.applied[f.ID] = true
	t.ledger.add(f.Home, f.Away, res)
	return nil
}

// Row returns a copy of a team's row.
func (t *Table) Row(team string) (Row, error) {
	r, ok := t.rows[team]
	if !ok {
		return Row{}, simerr.Lookupf("team %q not in table", team)
	}
	return *r, nil
}

// Rows returns copies of all rows in the order teams were given to New.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.order))
	for i, id := range t.order {
		out[i] = *t.rows[id]
	}
	return out
}

// Teams returns the team ids in the order given to New.
func (t *Table) Teams() []string {
	return append([]string(nil), t.order...)
}

// Applied reports how many fixtures have been applied.
func (t *Table) Applied() int {
	return len(t.applied)
}

// Has reports whether the fixture id has already been applied.
func (t *Table) Has(fixtureID string) bool {
	return t.applied[fixtureID]
}

// Ledger returns the meetings recorded so far.
func (t *Table) Ledger() *Ledger {
	return t.ledger
}

// Ranked returns the rows ordered by chain.
func (t *Table) Ranked(chain Chain) []Row {
	return Rank(t.Rows(), chain, t.ledger)
}

// Position returns the 1-based position of team in ranked rows, or 0.
func Position(rows []Row, team string) int {
	for i, r := range rows {
		if r.Team == team {
			return i + 1
		}
	}
	return 0
}

// Teams extracts the team ids of rows in order.
func Teams(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.Team
	}
	return ids
}
