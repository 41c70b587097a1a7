package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/derekprior/leaguesim/internal/simerr"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

type BlackoutDate struct {
	Date   Date   `yaml:"date"`
	Reason string `yaml:"reason"`
}

// Calendar places rounds on dates. Matchdays lists the weekdays a round may
// be played on ("saturday", "wednesday", ...).
type Calendar struct {
	StartDate     Date           `yaml:"start_date"`
	Matchdays     []string       `yaml:"matchdays"`
	BlackoutDates []BlackoutDate `yaml:"blackout_dates"`
}

type Season struct {
	StartYear int      `yaml:"start_year"`
	Seasons   int      `yaml:"seasons"`
	Seed      int64    `yaml:"seed"`
	Calendar  Calendar `yaml:"calendar"`
}

type Match struct {
	HomeAdvantage *float64 `yaml:"home_advantage"`
	BaseGoals     float64  `yaml:"base_goals"`
	StrengthScale float64  `yaml:"strength_scale"`
}

type Ranking struct {
	TieBreaks []string `yaml:"tie_breaks"`
}

type Ranked struct {
	Trials  int    `yaml:"trials"`
	Workers int    `yaml:"workers"`
	Top     int    `yaml:"top"`
	Tier    string `yaml:"tier"`
}

// Playoff configures the knockout that fills promotion slots left open when
// a tier promotes fewer teams automatically than the tier above relegates.
type Playoff struct {
	Teams     int  `yaml:"teams"`
	Legs      int  `yaml:"legs"`
	FinalLegs int  `yaml:"final_legs"`
	AwayGoals bool `yaml:"away_goals"`
	ExtraTime bool `yaml:"extra_time"`
}

// Zone names a range of final positions, e.g. continental qualification.
type Zone struct {
	Name string `yaml:"name"`
	From int    `yaml:"from"`
	To   int    `yaml:"to"`
}

type Knockout struct {
	Legs      int  `yaml:"legs"`
	FinalLegs int  `yaml:"final_legs"`
	AwayGoals bool `yaml:"away_goals"`
	ExtraTime bool `yaml:"extra_time"`
}

type Group struct {
	Size       int `yaml:"size"`
	Qualifiers int `yaml:"qualifiers"`
	Legs       int `yaml:"legs"`
	// PerGroup makes promote, relegate and playoff.teams count within each
	// group, with one promotion play-off per group.
	PerGroup bool `yaml:"per_group"`
}

// Groups returns how many groups a per-group tier has, or 0 when movement
// places count over the whole tier.
func (t *Tier) Groups() int {
	if t.Format != FormatGroup || t.Group == nil || !t.Group.PerGroup || t.Group.Size < 1 {
		return 0
	}
	return len(t.Teams) / t.Group.Size
}

type Swiss struct {
	Rounds  int `yaml:"rounds"`
	Direct  int `yaml:"direct"`
	Playoff int `yaml:"playoff"`
}

type Team struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Strength float64 `yaml:"strength"`
}

type Tier struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Format      string    `yaml:"format"`
	PromotesTo  string    `yaml:"promotes_to"`
	RelegatesTo string    `yaml:"relegates_to"`
	Promote     int       `yaml:"promote"`
	Relegate    int       `yaml:"relegate"`
	Playoff     *Playoff  `yaml:"playoff"`
	Zones       []Zone    `yaml:"zones"`
	Knockout    *Knockout `yaml:"knockout"`
	Group       *Group    `yaml:"group"`
	Swiss       *Swiss    `yaml:"swiss"`
	Teams       []Team    `yaml:"teams"`
}

// Override is an explicit roster event from outside the engine: a club is
// dissolved or a new club is admitted to a tier before the given season.
type Override struct {
	Season   int     `yaml:"season"`
	Action   string  `yaml:"action"`
	Team     string  `yaml:"team"`
	Name     string  `yaml:"name"`
	Tier     string  `yaml:"tier"`
	Strength float64 `yaml:"strength"`
}

type Config struct {
	Season    Season     `yaml:"season"`
	Match     Match      `yaml:"match"`
	Ranking   Ranking    `yaml:"ranking"`
	Ranked    Ranked     `yaml:"ranked"`
	Tiers     []Tier     `yaml:"tiers"`
	Overrides []Override `yaml:"overrides"`
}

const (
	FormatLeague   = "league"
	FormatKnockout = "knockout"
	FormatGroup    = "group"
	FormatSwiss    = "swiss"

	ActionDissolve = "dissolve"
	ActionAdmit    = "admit"
)

// AllTeams returns all teams across all tiers in configuration order.
func (c *Config) AllTeams() []Team {
	var teams []Team
	for _, t := range c.Tiers {
		teams = append(teams, t.Teams...)
	}
	return teams
}

// Tier returns the tier with the given id.
func (c *Config) Tier(id string) (*Tier, bool) {
	for i := range c.Tiers {
		if c.Tiers[i].ID == id {
			return &c.Tiers[i], true
		}
	}
	return nil, false
}

// HomeAdvantage returns the configured home bonus, or def when unset.
func (c *Config) HomeAdvantage(def float64) float64 {
	if c.Match.HomeAdvantage == nil {
		return def
	}
	return *c.Match.HomeAdvantage
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// ApplyEnv overrides run parameters from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("LEAGUESIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return simerr.Configf("LEAGUESIM_SEED %q: %v", v, err)
		}
		c.Season.Seed = seed
	}
	// Workers may be 0, which means one per CPU.
	ints := []struct {
		key string
		dst *int
		min int
	}{
		{"LEAGUESIM_SEASONS", &c.Season.Seasons, 1},
		{"LEAGUESIM_TRIALS", &c.Ranked.Trials, 1},
		{"LEAGUESIM_WORKERS", &c.Ranked.Workers, 0},
	}
	for _, e := range ints {
		v := getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < e.min {
			return simerr.Configf("%s must be an integer of at least %d, got %q", e.key, e.min, v)
		}
		*e.dst = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Season.Seasons == 0 {
		c.Season.Seasons = 1
	}
	if len(c.Season.Calendar.Matchdays) == 0 {
		c.Season.Calendar.Matchdays = []string{"saturday"}
	}
	if c.Ranked.Trials == 0 {
		c.Ranked.Trials = 1000
	}
	if c.Ranked.Top == 0 {
		c.Ranked.Top = 4
	}
	for i := range c.Tiers {
		t := &c.Tiers[i]
		if t.Format == "" {
			t.Format = FormatLeague
		}
		if t.Name == "" {
			t.Name = t.ID
		}
		for j := range t.Teams {
			if t.Teams[j].Name == "" {
				t.Teams[j].Name = t.Teams[j].ID
			}
		}
		if p := t.Playoff; p != nil {
			p.Legs = defaultLegs(p.Legs)
			p.FinalLegs = defaultLegs(p.FinalLegs)
		}
		if k := t.Knockout; k != nil {
			k.Legs = defaultLegs(k.Legs)
			k.FinalLegs = defaultLegs(k.FinalLegs)
		}
		if g := t.Group; g != nil && g.Legs == 0 {
			g.Legs = 2
		}
	}
}

func defaultLegs(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday parses a lower-case weekday name.
func Weekday(name string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(name)]
	return d, ok
}

func (c *Config) validate() error {
	if len(c.Tiers) == 0 {
		return simerr.Configf("at least one tier is required")
	}
	if c.Season.Seasons < 1 {
		return simerr.Configf("seasons must be at least 1")
	}
	for _, md := range c.Season.Calendar.Matchdays {
		if _, ok := Weekday(md); !ok {
			return simerr.Configf("unknown matchday %q", md)
		}
	}
	if c.Match.HomeAdvantage != nil && *c.Match.HomeAdvantage < 0 {
		return simerr.Configf("home_advantage must not be negative")
	}
	if c.Match.BaseGoals < 0 || c.Match.StrengthScale < 0 {
		return simerr.Configf("base_goals and strength_scale must not be negative")
	}

	tierIDs := make(map[string]bool)
	for _, t := range c.Tiers {
		if t.ID == "" {
			return simerr.Configf("tier %q has no id", t.Name)
		}
		if tierIDs[t.ID] {
			return simerr.Configf("duplicate tier %q", t.ID)
		}
		tierIDs[t.ID] = true
	}

	// Check for duplicate team ids across all tiers
	seen := make(map[string]string)
	for _, t := range c.Tiers {
		if err := t.validate(tierIDs); err != nil {
			return err
		}
		for _, team := range t.Teams {
			if prev, ok := seen[team.ID]; ok {
				return simerr.Configf("team %q appears in both %q and %q", team.ID, prev, t.ID)
			}
			seen[team.ID] = t.ID
		}
	}

	// Promotion and relegation links must agree in both directions.
	for _, t := range c.Tiers {
		if t.RelegatesTo != "" {
			lower, _ := c.Tier(t.RelegatesTo)
			if lower.PromotesTo != t.ID {
				return simerr.Configf("tier %q relegates to %q but %q does not promote to it", t.ID, lower.ID, lower.ID)
			}
		}
		if t.PromotesTo != "" {
			upper, _ := c.Tier(t.PromotesTo)
			if upper.RelegatesTo != t.ID {
				return simerr.Configf("tier %q promotes to %q but %q does not relegate to it", t.ID, upper.ID, upper.ID)
			}
		}
	}

	for i, o := range c.Overrides {
		switch o.Action {
		case ActionDissolve:
			if o.Team == "" {
				return simerr.Configf("override %d: dissolve needs a team", i+1)
			}
		case ActionAdmit:
			if o.Team == "" || !tierIDs[o.Tier] {
				return simerr.Configf("override %d: admit needs a team and a known tier", i+1)
			}
			if o.Strength < 0 {
				return simerr.Configf("override %d: strength must not be negative", i+1)
			}
		default:
			return simerr.Configf("override %d: unknown action %q", i+1, o.Action)
		}
		if o.Season < 2 {
			return simerr.Configf("override %d: season must be 2 or later", i+1)
		}
	}

	return nil
}

func (t *Tier) validate(tierIDs map[string]bool) error {
	switch t.Format {
	case FormatLeague, FormatKnockout, FormatGroup, FormatSwiss:
	default:
		return simerr.Configf("tier %q: unknown format %q", t.ID, t.Format)
	}
	if len(t.Teams) < 2 {
		return simerr.Configf("tier %q needs at least 2 teams, has %d", t.ID, len(t.Teams))
	}
	for _, team := range t.Teams {
		if team.ID == "" {
			return simerr.Configf("tier %q has a team without an id", t.ID)
		}
		if team.Strength < 0 {
			return simerr.Configf("team %q has negative strength", team.ID)
		}
	}
	for _, link := range []string{t.PromotesTo, t.RelegatesTo} {
		if link != "" && !tierIDs[link] {
			return simerr.Configf("tier %q links to unknown tier %q", t.ID, link)
		}
		if link == t.ID {
			return simerr.Configf("tier %q links to itself", t.ID)
		}
	}
	if t.Promote < 0 || t.Relegate < 0 {
		return simerr.Configf("tier %q: promote/relegate must not be negative", t.ID)
	}
	if t.Promote > 0 && t.PromotesTo == "" {
		return simerr.Configf("tier %q promotes %d teams but has no promotes_to", t.ID, t.Promote)
	}
	if t.Relegate > 0 && t.RelegatesTo == "" {
		return simerr.Configf("tier %q relegates %d teams but has no relegates_to", t.ID, t.Relegate)
	}
	playoffTeams := 0
	if t.Playoff != nil {
		playoffTeams = t.Playoff.Teams
		if playoffTeams < 2 {
			return simerr.Configf("tier %q: playoff needs at least 2 teams", t.ID)
		}
		if err := checkLegs(t.ID, t.Playoff.Legs, t.Playoff.FinalLegs); err != nil {
			return err
		}
	}
	places := len(t.Teams)
	if t.Group != nil && t.Group.PerGroup {
		if t.Format != FormatGroup {
			return simerr.Configf("tier %q: group.per_group needs the group format", t.ID)
		}
		if t.Group.Size >= 2 {
			places = t.Group.Size
		}
	}
	if t.Promote+playoffTeams+t.Relegate > places {
		return simerr.Configf("tier %q: %d promotion, %d playoff and %d relegation places exceed %d teams",
			t.ID, t.Promote, playoffTeams, t.Relegate, places)
	}
	for _, z := range t.Zones {
		if z.Name == "" || z.From < 1 || z.To < z.From || z.To > len(t.Teams) {
			return simerr.Configf("tier %q: invalid zone %q (%d-%d)", t.ID, z.Name, z.From, z.To)
		}
	}

	switch t.Format {
	case FormatKnockout:
		if t.Knockout != nil {
			if err := checkLegs(t.ID, t.Knockout.Legs, t.Knockout.FinalLegs); err != nil {
				return err
			}
		}
	case FormatGroup:
		if t.Group == nil || t.Group.Size < 2 {
			return simerr.Configf("tier %q: group format needs group.size >= 2", t.ID)
		}
		if len(t.Teams)%t.Group.Size != 0 {
			return simerr.Configf("tier %q: %d teams do not split into groups of %d", t.ID, len(t.Teams), t.Group.Size)
		}
		if t.Group.Qualifiers < 1 || t.Group.Qualifiers > t.Group.Size {
			return simerr.Configf("tier %q: group qualifiers must be between 1 and %d", t.ID, t.Group.Size)
		}
		if t.Group.Legs != 1 && t.Group.Legs != 2 {
			return simerr.Configf("tier %q: group legs must be 1 or 2", t.ID)
		}
	case FormatSwiss:
		if t.Swiss == nil || t.Swiss.Rounds < 1 {
			return simerr.Configf("tier %q: swiss format needs swiss.rounds >= 1", t.ID)
		}
		if len(t.Teams)%2 != 0 {
			return simerr.Configf("tier %q: swiss format needs an even number of teams", t.ID)
		}
	}
	return nil
}

func checkLegs(tier string, legs, finalLegs int) error {
	if legs != 1 && legs != 2 {
		return simerr.Configf("tier %q: legs must be 1 or 2, got %d", tier, legs)
	}
	if finalLegs != 1 && finalLegs != 2 {
		return simerr.Configf("tier %q: final_legs must be 1 or 2, got %d", tier, finalLegs)
	}
	return nil
}
