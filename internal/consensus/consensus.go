// Package consensus fans a prompt out to backends and folds their answers into a
// single consensus record.
package consensus

import (
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
)

// Consensus is the folded view of a response set.
type Consensus struct {
	Text             string  `json:"text" yaml:"text"`
	Confidence       float64 `json:"confidence" yaml:"confidence"`
	Agreement        float64 `json:"agreement" yaml:"agreement"`
	TotalCost        float64 `json:"total_cost" yaml:"total_cost"`
	AverageLatencyMs float64 `json:"average_latency_ms" yaml:"average_latency_ms"`
	Valid            int     `json:"valid" yaml:"valid"`
}

// Degraded reports whether no backend produced a usable answer.
func (c Consensus) Degraded() bool {
	return c.Valid == 0
}

// Valid returns the responses without an error, in their original order.
func Valid(responses []backend.Response) []backend.Response {
	out := make([]backend.Response, 0, len(responses))
	for _, r := range responses {
		if !r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// Build folds responses into a Consensus. It is a pure function of its inputs.
// Errored responses are dropped; when none remain the result is all zeroes.
func Build(responses []backend.Response, policy Policy) Consensus {
	valid := Valid(responses)
	if len(valid) == 0 {
		return Consensus{}
	}
	policy = policy.withDefaults()

	c := Consensus{
		Text:       policy.Select(valid),
		Confidence: policy.Confidence(valid),
		Agreement:  1,
		Valid:      len(valid),
	}
	if len(valid) > 1 {
		c.Agreement = policy.Agreement(valid)
	}

	var latency float64
	for _, r := range valid {
		c.TotalCost += r.Cost
		latency += r.LatencyMs
	}
	c.AverageLatencyMs = latency / float64(len(valid))
	return c
}
