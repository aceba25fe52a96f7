package backend

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

const maxJitter = 250 * time.Millisecond

// SimulatedOptions tunes a Simulated client.
type SimulatedOptions struct {
	BaseLatency time.Duration
	// Delay makes Invoke actually wait for the computed latency.
	Delay bool
	// Fail makes every call fail with ErrBackendUnavailable.
	Fail bool
}

// Simulated is a deterministic stand-in for a remote model. Its output depends only on
// the backend id, its static attributes and the prompt length.
type Simulated struct {
	spec Spec
	opts SimulatedOptions
}

// NewSimulated constructs a simulated client for spec.
func NewSimulated(spec Spec, opts SimulatedOptions) *Simulated {
	return &Simulated{spec: spec, opts: opts}
}

// ID returns the backend id.
func (s *Simulated) ID() string {
	return s.spec.ID
}

// Jitter is the deterministic latency offset for a backend id.
func Jitter(id string) time.Duration {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return time.Duration(h.Sum32()%uint32(maxJitter/time.Millisecond)) * time.Millisecond
}

// Latency is the simulated latency of a call.
func (s *Simulated) Latency() time.Duration {
	return s.opts.BaseLatency + Jitter(s.spec.ID)
}

// Invoke produces the simulated response.
func (s *Simulated) Invoke(ctx context.Context, prompt string) (Response, error) {
	latency := s.Latency()
	resp := Response{BackendID: s.spec.ID, LatencyMs: float64(latency) / float64(time.Millisecond)}

	if s.opts.Delay {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return resp, fmt.Errorf("%s: %w: %v", s.spec.ID, ErrBackendUnavailable, ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return resp, fmt.Errorf("%s: %w: %v", s.spec.ID, ErrBackendUnavailable, err)
	}

	if s.opts.Fail {
		return resp, fmt.Errorf("%s: %w: simulated network failure", s.spec.ID, ErrBackendUnavailable)
	}

	model := s.spec.Model
	if model == "" {
		model = s.spec.ID
	}
	resp.Text = fmt.Sprintf("[%s] %s answer for a %d-character task", s.spec.ID, model, len(prompt))
	resp.Confidence = s.spec.QualityScore
	resp.Cost = Cost(prompt, s.spec.CostPerUnit)
	return resp, nil
}
