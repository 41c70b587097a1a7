package standings

import (
	"slices"
	"strings"

	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
)

// Rule is a single tie-break criterion. Higher values rank first, except
// TeamID which orders ascending.
type Rule string

const (
	Points         Rule = "points"
	GoalDifference Rule = "goal_difference"
	GoalsFor       Rule = "goals_for"
	HeadToHead     Rule = "head_to_head"
	Wins           Rule = "wins"
	AwayGoalsFor   Rule = "away_goals_for"
	TeamID         Rule = "team_id"
)

var knownRules = map[Rule]bool{
	Points: true, GoalDifference: true, GoalsFor: true, HeadToHead: true,
	Wins: true, AwayGoalsFor: true, TeamID: true,
}

// Chain is an ordered list of rules. A chain used for ranking always ends in
// TeamID so the order is total.
type Chain []Rule

// DefaultChain is points, goal difference, goals scored, head-to-head and
// finally team id.
func DefaultChain() Chain {
	return Chain{Points, GoalDifference, GoalsFor, HeadToHead, TeamID}
}

// ParseChain builds a chain from configuration names. An empty list gives
// DefaultChain.
func ParseChain(names []string) (Chain, error) {
	if len(names) == 0 {
		return DefaultChain(), nil
	}
	seen := make(map[Rule]bool)
	var c Chain
	for _, n := range names {
		r := Rule(strings.ToLower(strings.TrimSpace(n)))
		if !knownRules[r] {
			return nil, simerr.Configf("unknown tie-break %q", n)
		}
		if seen[r] {
			return nil, simerr.Configf("tie-break %q listed twice", n)
		}
		seen[r] = true
		c = append(c, r)
	}
	return c.total(), nil
}

func (c Chain) total() Chain {
	if slices.Contains(c, TeamID) {
		return c
	}
	return append(slices.Clone(c), TeamID)
}

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, r := range c {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// Ledger records every meeting applied to a table so head-to-head
// mini-leagues can be computed for any tied block.
type Ledger struct {
	meetings []meeting
}

type meeting struct {
	home, away string
	result     match.Result
}

func (l *Ledger) add(home, away string, r match.Result) {
	l.meetings = append(l.meetings, meeting{home, away, r})
}

// Len reports the number of recorded meetings.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.meetings)
}

// MiniLeague returns rows built only from meetings between the given teams.
func (l *Ledger) MiniLeague(teams []string) map[string]Row {
	in := make(map[string]bool, len(teams))
	rows := make(map[string]*Row, len(teams))
	for _, t := range teams {
		in[t] = true
		rows[t] = &Row{Team: t}
	}
	if l != nil {
		for _, m := range l.meetings {
			if !in[m.home] || !in[m.away] {
				continue
			}
			rows[m.home].record(m.result.HomeGoals, m.result.AwayGoals, false)
			rows[m.away].record(m.result.AwayGoals, m.result.HomeGoals, true)
		}
	}
	out := make(map[string]Row, len(rows))
	for t, r := range rows {
		out[t] = *r
	}
	return out
}

type sortKey [3]int

func (a sortKey) compare(b sortKey) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Rank orders rows by chain. Rules are applied one at a time to each block
// of still-tied rows; head-to-head compares only the meetings among the
// teams of that block. The ledger may be nil when no head-to-head rule is
// used. Rows are returned in a new slice.
func Rank(rows []Row, chain Chain, ledger *Ledger) []Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Row) int { return strings.Compare(a.Team, b.Team) })

	blocks := [][2]int{{0, len(out)}}
	for _, rule := range chain.total() {
		var next [][2]int
		for _, b := range blocks {
			if b[1]-b[0] < 2 {
				next = append(next, b)
				continue
			}
			next = append(next, split(out[b[0]:b[1]], rule, ledger, b[0])...)
		}
		blocks = next
	}
	return out
}

// split sorts one tied block by rule and returns the resulting sub-blocks
// as absolute index ranges.
func split(block []Row, rule Rule, ledger *Ledger, offset int) [][2]int {
	keys := make(map[string]sortKey, len(block))
	switch rule {
	case TeamID:
		// Rows are already in id order.
		out := make([][2]int, len(block))
		for i := range block {
			out[i] = [2]int{offset + i, offset + i + 1}
		}
		return out
	case HeadToHead:
		mini := ledger.MiniLeague(Teams(block))
		for _, r := range block {
			m := mini[r.Team]
			keys[r.Team] = sortKey{m.Points, m.GoalDifference(), m.GoalsFor}
		}
	default:
		for _, r := range block {
			keys[r.Team] = sortKey{value(r, rule)}
		}
	}

	slices.SortStableFunc(block, func(a, b Row) int {
		return keys[a.Team].compare(keys[b.Team])
	})

	var out [][2]int
	start := 0
	for i := 1; i <= len(block); i++ {
		if i == len(block) || keys[block[i].Team] != keys[block[start].Team] {
			out = append(out, [2]int{offset + start, offset + i})
			start = i
		}
	}
	return out
}

func value(r Row, rule Rule) int {
	switch rule {
	case Points:
		return r.Points
	case GoalDifference:
		return r.GoalDifference()
	case GoalsFor:
		return r.GoalsFor
	case Wins:
		return r.Won
	case AwayGoalsFor:
		return r.AwayGoalsFor
	}
	return 0
}
