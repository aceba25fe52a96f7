package complexity

// DefaultPatterns is the built-in pattern table, keyed by severity level.
// Matching is case-insensitive; patterns are RE2 syntax.
func DefaultPatterns() map[Level][]string {
	return map[Level][]string{
		Basic: {
			`\b(simple|basic|easy|quick)\b`,
			`\b(function|variable|print|hello world)\b`,
			`\b(list|string|loop|array)\b`,
			`\b(read|write|open) (a |the )?file\b`,
		},
		Intermediate: {
			`\b(optimi[sz]e|refactor|debug)\b`,
			`\b(api|database|class|module|endpoint)\b`,
			`\b(unit tests?|integration tests?|validation)\b`,
			`\b(async|concurren(t|cy)|parallel)\b`,
		},
		Advanced: {
			`\b(machine learning|deep learning|neural networks?)\b`,
			`\b(algorithms?|data structures?)\b`,
			`\b(distributed|microservices?|scalab(le|ility))\b`,
			`\b(security|encryption|authentication)\b`,
		},
		Expert: {
			`\bquantum\b`,
			`\b(compilers?|operating systems?|kernel)\b`,
			`\b(novel|state[- ]of[- ]the[- ]art)\b`,
			`\b(formal verification|consensus protocols?|cryptographic proofs?)\b`,
		},
	}
}

// DefaultDomains maps domain tags to score multipliers.
func DefaultDomains() map[string]float64 {
	return map[string]float64{
		"coding":               1.0,
		"documentation":        1.0,
		"devops":               1.3,
		"data_science":         1.5,
		"security":             1.8,
		"ai_research":          2.0,
		"scientific_computing": 2.5,
	}
}
