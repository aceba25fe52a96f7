package complexity

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	// BaseScore is the score of a task that matches nothing.
	BaseScore = 1.0
	// MaxScore caps the final score.
	MaxScore = 10.0

	MinMultiplier = 1.0
	MaxMultiplier = 2.5
)

// ErrEmptyTask is returned when the task description is blank.
var ErrEmptyTask = errors.New("task description is required")

// Level is a pattern severity level. Each matching pattern adds the level's increment.
type Level int

const (
	Basic Level = iota
	Intermediate
	Advanced
	Expert
)

const levelCount = 4

var levelNames = [levelCount]string{"basic", "intermediate", "advanced", "expert"}

var increments = [levelCount]float64{0.5, 1.0, 2.0, 3.0}

// Levels returns the scan order.
func Levels() []Level {
	return []Level{Basic, Intermediate, Advanced, Expert}
}

func (l Level) valid() bool { return l >= Basic && l <= Expert }

func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Increment is the score added by each matching pattern of this level.
func (l Level) Increment() float64 {
	if !l.valid() {
		return 0
	}
	return increments[l]
}

// ParseLevel resolves a level name.
func ParseLevel(s string) (Level, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == key {
			return Level(i), nil
		}
	}
	return Basic, fmt.Errorf("unknown complexity level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Table is the static classifier configuration.
type Table struct {
	Patterns map[Level][]string
	Domains  map[string]float64
}

// DefaultTable returns the built-in patterns and domain multipliers.
func DefaultTable() Table {
	return Table{Patterns: DefaultPatterns(), Domains: DefaultDomains()}
}

type compiledPattern struct {
	source string
	re     *regexp.Regexp
}

// Classifier scores task descriptions. It is immutable once built and safe for concurrent use.
type Classifier struct {
	patterns [levelCount][]compiledPattern
	domains  map[string]float64
}

// Match is a single pattern hit.
type Match struct {
	Level     Level   `json:"level" yaml:"level"`
	Pattern   string  `json:"pattern" yaml:"pattern"`
	Increment float64 `json:"increment" yaml:"increment"`
}

// Analysis explains how a score was reached.
type Analysis struct {
	Domain     string  `json:"domain,omitempty" yaml:"domain,omitempty"`
	Matches    []Match `json:"matches" yaml:"matches"`
	Raw        float64 `json:"raw" yaml:"raw"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Score      float64 `json:"score" yaml:"score"`
	Clamped    bool    `json:"clamped" yaml:"clamped"`
}

// New compiles a table. Bad patterns and out-of-range multipliers are rejected here
// so scoring itself never fails on configuration.
func New(table Table) (*Classifier, error) {
	c := &Classifier{domains: make(map[string]float64, len(table.Domains))}

	for lvl, list := range table.Patterns {
		if !lvl.valid() {
			return nil, fmt.Errorf("unknown complexity level %d", int(lvl))
		}
		for _, src := range list {
			if strings.TrimSpace(src) == "" {
				return nil, fmt.Errorf("%s: empty pattern", lvl)
			}
			re, err := regexp.Compile("(?i)" + src)
			if err != nil {
				return nil, fmt.Errorf("%s pattern %q: %w", lvl, src, err)
			}
			c.patterns[lvl] = append(c.patterns[lvl], compiledPattern{source: src, re: re})
		}
	}

	for name, m := range table.Domains {
		key := normalizeDomain(name)
		if key == "" {
			return nil, errors.New("domain name cannot be empty")
		}
		if m < MinMultiplier || m > MaxMultiplier || math.IsNaN(m) {
			return nil, fmt.Errorf("domain %q multiplier %.2f outside [%.1f, %.1f]", name, m, MinMultiplier, MaxMultiplier)
		}
		c.domains[key] = m
	}

	return c, nil
}

// Default builds the classifier from the built-in table.
func Default() *Classifier {
	c, err := New(DefaultTable())
	if err != nil {
		panic(fmt.Sprintf("complexity: default table: %v", err))
	}
	return c
}

// Score returns the complexity score of text for the given domain (may be empty).
func (c *Classifier) Score(text, domain string) (float64, error) {
	a, err := c.Analyze(text, domain)
	if err != nil {
		return 0, err
	}
	return a.Score, nil
}

// Analyze scores text and reports every pattern that contributed.
func (c *Classifier) Analyze(text, domain string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, ErrEmptyTask
	}

	a := Analysis{Domain: normalizeDomain(domain), Matches: []Match{}, Multiplier: 1.0}
	score := BaseScore
	for _, lvl := range Levels() {
		for _, p := range c.patterns[lvl] {
			if !p.re.MatchString(text) {
				continue
			}
			score += lvl.Increment()
			a.Matches = append(a.Matches, Match{Level: lvl, Pattern: p.source, Increment: lvl.Increment()})
		}
	}
	a.Raw = score

	if m, ok := c.Multiplier(domain); ok {
		a.Multiplier = m
		score *= m
	}
	if score > MaxScore {
		score = MaxScore
		a.Clamped = true
	}
	a.Score = score
	return a, nil
}

// Multiplier returns the multiplier for a recognised domain.
func (c *Classifier) Multiplier(domain string) (float64, bool) {
	m, ok := c.domains[normalizeDomain(domain)]
	return m, ok
}

// Domains lists the recognised domain tags in sorted order.
func (c *Classifier) Domains() []string {
	out := make([]string, 0, len(c.domains))
	for d := range c.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// PatternCount returns the number of patterns for a level.
func (c *Classifier) PatternCount(l Level) int {
	if !l.valid() {
		return 0
	}
	return len(c.patterns[l])
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}
