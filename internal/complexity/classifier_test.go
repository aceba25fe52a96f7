package complexity

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestScoreSimpleCodingTask(t *testing.T) {
	c := Default()
	score, err := c.Score("Write a simple function", "coding")
	require.NoError(t, err)
	require.InDelta(t, 2.0, score, 1e-9)
	require.GreaterOrEqual(t, score, 1.5)
	require.LessOrEqual(t, score, 2.5)
}

func TestScoreClampsResearchTask(t *testing.T) {
	c := Default()
	a, err := c.Analyze("Optimize deep learning model with quantum algorithms", "ai_research")
	require.NoError(t, err)
	require.Equal(t, 9.0, a.Raw)
	require.Equal(t, 2.0, a.Multiplier)
	require.Equal(t, MaxScore, a.Score)
	require.True(t, a.Clamped)

	want := []Match{
		{Level: Intermediate, Pattern: `\b(optimi[sz]e|refactor|debug)\b`, Increment: 1.0},
		{Level: Advanced, Pattern: `\b(machine learning|deep learning|neural networks?)\b`, Increment: 2.0},
		{Level: Advanced, Pattern: `\b(algorithms?|data structures?)\b`, Increment: 2.0},
		{Level: Expert, Pattern: `\bquantum\b`, Increment: 3.0},
	}
	if diff := cmp.Diff(want, a.Matches); diff != "" {
		t.Fatalf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreRejectsEmptyTask(t *testing.T) {
	c := Default()
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := c.Score(text, "coding")
		require.True(t, errors.Is(err, ErrEmptyTask))
	}
}

func TestUnknownDomainIsIgnored(t *testing.T) {
	c := Default()
	plain, err := c.Score("debug the database module", "")
	require.NoError(t, err)
	unknown, err := c.Score("debug the database module", "astrology")
	require.NoError(t, err)
	require.Equal(t, plain, unknown)

	_, ok := c.Multiplier("astrology")
	require.False(t, ok)
	m, ok := c.Multiplier(" AI_Research ")
	require.True(t, ok)
	require.Equal(t, 2.0, m)
}

func TestIncrementsAccumulateWithinLevel(t *testing.T) {
	c, err := New(Table{Patterns: map[Level][]string{
		Advanced: {`alpha`, `beta`, `gamma`},
	}})
	require.NoError(t, err)

	score, err := c.Score("alpha beta gamma", "")
	require.NoError(t, err)
	require.Equal(t, 7.0, score)
}

func TestScoreIsMonotonicInHardMatches(t *testing.T) {
	c := Default()
	texts := []string{
		"write a function",
		"write a function using an algorithm",
		"write a distributed function using an algorithm",
		"write a distributed function using an algorithm with encryption",
		"write a distributed quantum function using an algorithm with encryption",
		"write a distributed quantum compiler function using an algorithm with encryption",
		"write a novel distributed quantum compiler function using an algorithm with encryption and formal verification",
	}
	for _, domain := range []string{"", "coding", "security", "scientific_computing"} {
		prev := 0.0
		for _, text := range texts {
			score, err := c.Score(text, domain)
			require.NoError(t, err)
			require.GreaterOrEqual(t, score, prev, "domain %q text %q", domain, text)
			prev = score
		}
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	c := Default()
	texts := []string{
		"hello",
		"simple basic easy quick function list string loop",
		"quantum compiler kernel novel formal verification deep learning algorithms distributed security optimize api async unit tests",
	}
	for _, domain := range append(c.Domains(), "", "unknown") {
		for _, text := range texts {
			score, err := c.Score(text, domain)
			require.NoError(t, err)
			require.GreaterOrEqual(t, score, BaseScore)
			require.LessOrEqual(t, score, MaxScore)
		}
	}
}

func TestNewRejectsBadTable(t *testing.T) {
	_, err := New(Table{Patterns: map[Level][]string{Basic: {`(unclosed`}}})
	require.Error(t, err)

	_, err = New(Table{Domains: map[string]float64{"coding": 0.5}})
	require.Error(t, err)

	_, err = New(Table{Domains: map[string]float64{"coding": 3.0}})
	require.Error(t, err)

	_, err = New(Table{Patterns: map[Level][]string{Level(9): {`x`}}})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels() {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		require.Equal(t, l, got)
	}
	_, err := ParseLevel("godlike")
	require.Error(t, err)
}
