package ensemble

import (
	"errors"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/complexity"
	"github.com/swcstudio/fsl-continuum-sub003/internal/consensus"
	"github.com/swcstudio/fsl-continuum-sub003/internal/router"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

var (
	// ErrEmptyTask is returned for a blank task description.
	ErrEmptyTask = complexity.ErrEmptyTask
	// ErrInvalidTier is returned when a request names a tier that does not exist.
	ErrInvalidTier = errors.New("invalid tier")
)

// IsInputError reports whether err was caused by the caller's request.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyTask) || errors.Is(err, ErrInvalidTier)
}

// Request is a single ensemble invocation.
type Request struct {
	Task   string `json:"task" yaml:"task"`
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
	// Tier, when set, replaces the computed tier.
	Tier string `json:"tier,omitempty" yaml:"tier,omitempty"`
	// Backends, when set, replaces the routed backend list; order is kept.
	Backends         []string `json:"backends,omitempty" yaml:"backends,omitempty"`
	PreferredBackend string   `json:"preferred_backend,omitempty" yaml:"preferred_backend,omitempty"`
}

// Result is the record produced for one request.
type Result struct {
	ID                 string             `json:"id" yaml:"id"`
	Task               string             `json:"task" yaml:"task"`
	Domain             string             `json:"domain,omitempty" yaml:"domain,omitempty"`
	Complexity         float64            `json:"complexity" yaml:"complexity"`
	Tier               tier.Tier          `json:"tier" yaml:"tier"`
	Consensus          string             `json:"consensus" yaml:"consensus"`
	Confidence         float64            `json:"confidence" yaml:"confidence"`
	Agreement          float64            `json:"agreement" yaml:"agreement"`
	Backends           []string           `json:"backends" yaml:"backends"`
	Responses          []backend.Response `json:"responses" yaml:"responses"`
	TotalCost          float64            `json:"total_cost" yaml:"total_cost"`
	AverageLatencyMs   float64            `json:"average_latency_ms" yaml:"average_latency_ms"`
	ElevationSuggested bool               `json:"elevation_suggested" yaml:"elevation_suggested"`
	ElevationTarget    *tier.Tier         `json:"elevation_target,omitempty" yaml:"elevation_target,omitempty"`
	Reason             string             `json:"reason,omitempty" yaml:"reason,omitempty"`
	Degraded           bool               `json:"degraded" yaml:"degraded"`
	Timestamp          string             `json:"timestamp" yaml:"timestamp"`
}

// Event types emitted by Engine.Stream.
const (
	EventClassified = "classified"
	EventRouted     = "routed"
	EventResponse   = "response"
	EventConsensus  = "consensus"
	EventDone       = "done"
	EventError      = "error"
)

// Event is one step of a streamed run.
type Event struct {
	Type      string               `json:"type"`
	RequestID string               `json:"request_id,omitempty"`
	Analysis  *complexity.Analysis `json:"analysis,omitempty"`
	Decision  *router.Decision     `json:"decision,omitempty"`
	Response  *backend.Response    `json:"response,omitempty"`
	Consensus *consensus.Consensus `json:"consensus,omitempty"`
	Result    *Result              `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
}
