package season

import (
	"fmt"
	"slices"

	"github.com/derekprior/leaguesim/internal/competition"
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/team"
	"github.com/derekprior/leaguesim/internal/tournament"
)

// Movement reasons.
const (
	Promoted        = "promoted"
	PromotedPlayoff = "promoted via play-off"
	Relegated       = "relegated"
	Dissolved       = "dissolved"
	Admitted        = "admitted"
)

// Movement records one team changing tier (or leaving or joining the
// pyramid) between seasons.
type Movement struct {
	Team   string
	From   string
	To     string
	Reason string
}

// Override is an explicit roster event supplied from outside the engine.
type Override struct {
	Action   string // config.ActionDissolve or config.ActionAdmit
	Team     string
	Name     string
	Tier     string
	Strength float64
}

// Input is everything a transition consumes.
type Input struct {
	// Season is the season that just finished.
	Season    int
	Outcomes  map[string]competition.Outcome
	Graph     *Graph
	Pool      *team.Pool
	Changes   []team.SquadChange
	Overrides []Override
	// Engine plays the promotion play-offs. Its strengths should be the
	// snapshot the finished season was played with.
	Engine *match.Engine
}

// Result is the state of the pyramid for the next season.
type Result struct {
	Season    int
	Rosters   map[string][]string
	Movements []Movement
	Playoffs  map[string][]tournament.BracketResult
	Champions map[string]string
	// Pool is a new pool with rosters, overrides and squad changes applied.
	// The input pool is never modified.
	Pool *team.Pool
}

// Transition resolves promotion, relegation and play-offs for every
// boundary and returns next season's rosters. Nothing is applied unless
// the whole transition succeeds.
func Transition(in Input) (Result, error) {
	if in.Graph == nil || in.Pool == nil {
		return Result{}, simerr.Configf("transition needs a tier graph and a team pool")
	}
	tiers := in.Graph.Tiers()

	// Every tier must be settled and every team must be in exactly one.
	owner := make(map[string]string)
	for _, tier := range tiers {
		out, ok := in.Outcomes[tier]
		if !ok {
			return Result{}, simerr.Statef("season %d: no outcome for tier %q", in.Season, tier)
		}
		if out.Tier != "" && out.Tier != tier {
			return Result{}, simerr.Statef("season %d: outcome for %q filed under %q", in.Season, out.Tier, tier)
		}
		for _, id := range out.Placement {
			if prev, dup := owner[id]; dup {
				return Result{}, simerr.Statef("season %d: team %q is in both %q and %q", in.Season, id, prev, tier)
			}
			owner[id] = tier
		}
	}

	res := Result{
		Season:    in.Season + 1,
		Rosters:   make(map[string][]string),
		Playoffs:  make(map[string][]tournament.BracketResult),
		Champions: make(map[string]string),
	}
	up := make(map[string][]string)   // tier -> teams arriving from below
	down := make(map[string][]string) // tier -> teams arriving from above
	leaving := make(map[string]bool)

	for _, b := range in.Graph.Boundaries() {
		upper, lower := in.Outcomes[b.Upper], in.Outcomes[b.Lower]
		upperRules, _ := in.Graph.Rules(b.Upper)
		lowerRules, _ := in.Graph.Rules(b.Lower)

		relegated := upper.Relegated
		if len(relegated) != upperRules.Relegate {
			return Result{}, simerr.Statef("tier %q relegated %d teams, expected %d", b.Upper, len(relegated), upperRules.Relegate)
		}
		promoted := slices.Clone(lower.Promoted)
		if len(promoted) != lowerRules.Promote {
			return Result{}, simerr.Statef("tier %q promoted %d teams, expected %d", b.Lower, len(promoted), lowerRules.Promote)
		}
		for _, id := range promoted {
			res.Movements = append(res.Movements, Movement{Team: id, From: b.Lower, To: b.Upper, Reason: Promoted})
		}

		if b.Slots > 0 {
			if in.Engine == nil {
				return Result{}, simerr.Configf("tier %q play-off needs a match engine", b.Lower)
			}
			brackets := splitPlayoff(lower.PlayoffParticipants, b.Slots)
			if lowerRules.Playoff.PerGroup {
				brackets = lower.PlayoffGroups
				if len(brackets) != b.Slots {
					return Result{}, simerr.Statef("tier %q has %d group play-offs for %d place(s)", b.Lower, len(brackets), b.Slots)
				}
			}
			for i, seeds := range brackets {
				id := fmt.Sprintf("S%d-%s-playoff", in.Season, b.Lower)
				if len(brackets) > 1 {
					id = fmt.Sprintf("%s-%d", id, i+1)
				}
				br, err := SimulatePlayoff(id, seeds, lowerRules.Playoff.Bracket, in.Engine)
				if err != nil {
					return Result{}, fmt.Errorf("tier %q play-off: %w", b.Lower, err)
				}
				res.Playoffs[b.Lower] = append(res.Playoffs[b.Lower], br)
				promoted = append(promoted, br.Winner)
				res.Movements = append(res.Movements, Movement{Team: br.Winner, From: b.Lower, To: b.Upper, Reason: PromotedPlayoff})
			}
		}

		for _, id := range relegated {
			res.Movements = append(res.Movements, Movement{Team: id, From: b.Upper, To: b.Lower, Reason: Relegated})
			leaving[id] = true
		}
		for _, id := range promoted {
			leaving[id] = true
		}
		up[b.Upper] = append(up[b.Upper], promoted...)
		down[b.Lower] = append(down[b.Lower], relegated...)
	}

	// Next season's seeding: teams dropping in first, then stayers in final
	// order, then teams coming up.
	for _, tier := range tiers {
		out := in.Outcomes[tier]
		res.Champions[tier] = out.Champion
		roster := slices.Clone(down[tier])
		for _, id := range out.Placement {
			if !leaving[id] {
				roster = append(roster, id)
			}
		}
		roster = append(roster, up[tier]...)
		res.Rosters[tier] = roster
	}

	pool := in.Pool.Clone()
	for _, o := range in.Overrides {
		switch o.Action {
		case config.ActionDissolve:
			tier, ok := locate(res.Rosters, o.Team)
			if !ok {
				return Result{}, simerr.Statef("cannot dissolve %q: not in any tier", o.Team)
			}
			res.Rosters[tier] = slices.DeleteFunc(res.Rosters[tier], func(s string) bool { return s == o.Team })
			if err := pool.Remove(o.Team); err != nil {
				return Result{}, err
			}
			res.Movements = append(res.Movements, Movement{Team: o.Team, From: tier, Reason: Dissolved})
		case config.ActionAdmit:
			if _, ok := res.Rosters[o.Tier]; !ok {
				return Result{}, simerr.Configf("cannot admit %q to unknown tier %q", o.Team, o.Tier)
			}
			if err := pool.Add(team.Team{ID: o.Team, Name: o.Name, Division: o.Tier}, o.Strength); err != nil {
				return Result{}, err
			}
			res.Rosters[o.Tier] = append(res.Rosters[o.Tier], o.Team)
			res.Movements = append(res.Movements, Movement{Team: o.Team, To: o.Tier, Reason: Admitted})
		default:
			return Result{}, simerr.Configf("unknown override action %q", o.Action)
		}
	}
	if err := pool.Apply(in.Changes); err != nil {
		return Result{}, err
	}

	seen := make(map[string]string)
	for _, tier := range tiers {
		if len(res.Rosters[tier]) < 2 {
			return Result{}, simerr.Configf("tier %q would start season %d with %d teams", tier, res.Season, len(res.Rosters[tier]))
		}
		for _, id := range res.Rosters[tier] {
			if prev, dup := seen[id]; dup {
				return Result{}, simerr.Statef("team %q placed in both %q and %q", id, prev, tier)
			}
			seen[id] = tier
			if err := pool.SetDivision(id, tier); err != nil {
				return Result{}, simerr.Statef("team %q has no pool entry: %v", id, err)
			}
		}
	}
	res.Pool = pool
	return res, nil
}

// SimulatePlayoff runs a promotion play-off among participants in seed order
// and returns the finished bracket.
func SimulatePlayoff(id string, participants []string, cfg tournament.BracketConfig, e *match.Engine) (tournament.BracketResult, error) {
	b, err := tournament.NewBracket(id, participants, cfg)
	if err != nil {
		return tournament.BracketResult{}, err
	}
	return b.Run(e)
}

// splitPlayoff deals seeds into n brackets the way pots are drawn: seed i
// goes to bracket i mod n.
func splitPlayoff(seeds []string, n int) [][]string {
	out := make([][]string, n)
	for i, s := range seeds {
		out[i%n] = append(out[i%n], s)
	}
	return out
}

func locate(rosters map[string][]string, id string) (string, bool) {
	for tier, teams := range rosters {
		if slices.Contains(teams, id) {
			return tier, true
		}
	}
	return "", false
}
