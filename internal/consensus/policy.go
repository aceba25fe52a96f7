package consensus

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
)

// DefaultAgreement is the constant agreement reported when two or more responses are valid.
const DefaultAgreement = 0.85

// Policy decides how valid responses collapse into one answer. Each field receives
// the valid responses in caller order and is only called with at least one of them.
type Policy struct {
	Confidence func(valid []backend.Response) float64
	// Agreement is only consulted when two or more responses are valid.
	Agreement func(valid []backend.Response) float64
	Select    func(valid []backend.Response) string
}

// DefaultPolicy averages confidence, reports a fixed agreement and keeps the first answer.
func DefaultPolicy() Policy {
	return Policy{
		Confidence: MeanConfidence,
		Agreement:  FixedAgreement(DefaultAgreement),
		Select:     FirstText,
	}
}

// PolicyFor builds a policy by agreement policy name ("fixed" or "overlap").
func PolicyFor(name string, fixed float64) (Policy, error) {
	p := DefaultPolicy()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fixed":
		if fixed > 0 {
			p.Agreement = FixedAgreement(fixed)
		}
	case "overlap":
		p.Agreement = OverlapAgreement
	default:
		return Policy{}, fmt.Errorf("unknown agreement policy %q", name)
	}
	return p, nil
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Confidence == nil {
		p.Confidence = d.Confidence
	}
	if p.Agreement == nil {
		p.Agreement = d.Agreement
	}
	if p.Select == nil {
		p.Select = d.Select
	}
	return p
}

// MeanConfidence is the arithmetic mean of the responses' confidence.
func MeanConfidence(valid []backend.Response) float64 {
	var sum float64
	for _, r := range valid {
		sum += r.Confidence
	}
	return sum / float64(len(valid))
}

// FirstText returns the first valid response's text.
func FirstText(valid []backend.Response) string {
	return valid[0].Text
}

// FixedAgreement reports v regardless of content.
func FixedAgreement(v float64) func([]backend.Response) float64 {
	return func([]backend.Response) float64 { return v }
}

// OverlapAgreement is the mean pairwise token overlap between response texts.
func OverlapAgreement(valid []backend.Response) float64 {
	if len(valid) < 2 {
		return 1
	}
	tokens := make([][]string, len(valid))
	for i, r := range valid {
		tokens[i] = tokenize(r.Text)
	}

	var sum float64
	var pairs int
	for i := 0; i < len(tokens); i++ {
		for j := i + 1; j < len(tokens); j++ {
			sum += (overlapScore(tokens[i], tokens[j]) + overlapScore(tokens[j], tokens[i])) / 2
			pairs++
		}
	}
	return sum / float64(pairs)
}

// overlapScore is the share of distinct tokens in a that also appear in b.
func overlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		seen[t] = struct{}{}
	}
	uniq := make(map[string]struct{}, len(a))
	var overlap int
	for _, t := range a {
		if _, dup := uniq[t]; dup {
			continue
		}
		uniq[t] = struct{}{}
		if _, ok := seen[t]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(uniq))
}

var tokenRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

func tokenize(s string) []string {
	return tokenRe.FindAllString(strings.ToLower(s), -1)
}
