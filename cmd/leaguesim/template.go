package main

const configTemplate = `# leaguesim configuration
# ======================
# This file describes a pyramid of tiers, the teams in them and how teams
# move between tiers at the end of each season.

# Season settings. Every run with the same seed produces the same results.
season:
  start_year: 2026
  seasons: 5
  seed: 20260808

  # Calendar used to date fixtures in the workbook. Each round takes the
  # next matchday that is not blacked out.
  calendar:
    start_date: "2026-08-08"
    matchdays: [saturday]
    blackout_dates:
      - date: "2026-09-05"
        reason: "International break"
      - date: "2026-10-10"
        reason: "International break"
      - date: "2026-11-14"
        reason: "International break"

# Match model. Goals are Poisson distributed; the expected goals of each
# side grow with its strength advantage over the opponent.
match:
  home_advantage: 3       # strength points added to the home side
  base_goals: 1.35        # expected goals for each side when level
  strength_scale: 25      # strength difference that multiplies goals by e

# Tie-breaks applied after points, in order. team_id is always appended so
# every table has a total order.
# Available: points, goal_difference, goals_for, head_to_head, wins,
# away_goals_for, team_id.
ranking:
  tie_breaks: [points, goal_difference, goals_for, head_to_head]

# Defaults for "leaguesim ranked".
ranked:
  trials: 1000
  workers: 0    # 0 uses every CPU
  top: 4
  tier: premier

# Tiers, top first. Each tier may use a different format:
#   league    double round-robin (default)
#   knockout  single elimination; knockout: {legs, final_legs, away_goals, extra_time}
#   group     groups then ranking; group: {size, qualifiers, legs, per_group}
#             per_group applies promote, relegate and playoff to each group
#   swiss     fixed rounds of closest-score pairings; swiss: {rounds, direct, playoff}
#
# promote/relegate are automatic places. When a tier promotes fewer teams
# than the tier above relegates, the remaining places go to a play-off among
# the next-ranked teams.
tiers:
  - id: premier
    name: Premier Division
    relegates_to: championship
    relegate: 2
    zones:
      - {name: champions_cup, from: 1, to: 2}
    teams:
      - {id: ars, name: Arsenal, strength: 86}
      - {id: liv, name: Liverpool, strength: 85}
      - {id: mci, name: Manchester City, strength: 88}
      - {id: che, name: Chelsea, strength: 80}
      - {id: tot, name: Tottenham, strength: 77}
      - {id: new, name: Newcastle, strength: 76}
      - {id: avl, name: Aston Villa, strength: 75}
      - {id: bha, name: Brighton, strength: 72}

  - id: championship
    name: Championship
    promotes_to: premier
    relegates_to: league-one
    promote: 1
    relegate: 1
    playoff:
      teams: 4
      legs: 2
      final_legs: 1
      away_goals: false
      extra_time: true
    teams:
      - {id: lee, name: Leeds United, strength: 70}
      - {id: bur, name: Burnley, strength: 69}
      - {id: shu, name: Sheffield United, strength: 67}
      - {id: sun, name: Sunderland, strength: 66}
      - {id: mid, name: Middlesbrough, strength: 64}
      - {id: wba, name: West Brom, strength: 63}
      - {id: nor, name: Norwich City, strength: 62}
      - {id: cov, name: Coventry City, strength: 61}

  - id: league-one
    name: League One
    promotes_to: championship
    promote: 1
    teams:
      - {id: bir, name: Birmingham City, strength: 60}
      - {id: wig, name: Wigan Athletic, strength: 55}
      - {id: bol, name: Bolton Wanderers, strength: 56}
      - {id: hud, name: Huddersfield Town, strength: 54}
      - {id: pbo, name: Peterborough United, strength: 52}
      - {id: rdg, name: Reading, strength: 51}

# Overrides change the pyramid before a season starts: a club can be
# dissolved or a new club admitted to a tier.
overrides:
  - season: 3
    action: admit
    team: afc
    name: AFC Wimbledon
    tier: league-one
    strength: 50
`
