package backend

import (
	"context"
	"errors"

	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

var (
	// ErrBackendUnavailable wraps every failed backend call (network, status, rate limit).
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrUnknownBackend is returned when an id is not registered.
	ErrUnknownBackend = errors.New("backend not registered")
)

// Spec holds the static attributes of a backend.
type Spec struct {
	ID           string     `json:"id" yaml:"id"`
	Type         string     `json:"type" yaml:"type"`
	Model        string     `json:"model,omitempty" yaml:"model,omitempty"`
	CostPerUnit  float64    `json:"cost_per_unit" yaml:"cost_per_unit"`
	QualityScore float64    `json:"quality_score" yaml:"quality_score"`
	MaxTier      *tier.Tier `json:"max_tier,omitempty" yaml:"max_tier,omitempty"`
}

// SupportsUpTo returns the highest tier the backend accepts.
func (s Spec) SupportsUpTo() tier.Tier {
	if s.MaxTier == nil {
		return tier.Critical
	}
	return *s.MaxTier
}

// Response is one backend's answer to one aggregation call.
type Response struct {
	BackendID  string  `json:"backend_id" yaml:"backend_id"`
	Text       string  `json:"text" yaml:"text"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	LatencyMs  float64 `json:"latency_ms" yaml:"latency_ms"`
	Cost       float64 `json:"cost" yaml:"cost"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the response carries an error.
func (r Response) Failed() bool {
	return r.Error != ""
}

// Client is the capability to invoke one backend.
type Client interface {
	ID() string
	Invoke(ctx context.Context, prompt string) (Response, error)
}

// Cost is the per-call cost formula: prompt length in thousands of bytes times the unit cost.
func Cost(prompt string, costPerUnit float64) float64 {
	return float64(len(prompt)) / 1000 * costPerUnit
}
