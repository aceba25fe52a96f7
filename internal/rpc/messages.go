package rpc

import (
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

// RunEnsembleRequest is the top-level request for an ensemble run.
type RunEnsembleRequest struct {
	CorrelationID    string   `json:"correlation_id,omitempty"`
	Task             string   `json:"task"`
	Domain           string   `json:"domain,omitempty"`
	Tier             string   `json:"tier,omitempty"`
	Backends         []string `json:"backends,omitempty"`
	PreferredBackend string   `json:"preferred_backend,omitempty"`
}

// Ensemble converts the wire request into an engine request.
func (r RunEnsembleRequest) Ensemble() ensemble.Request {
	return ensemble.Request{
		Task:             r.Task,
		Domain:           r.Domain,
		Tier:             r.Tier,
		Backends:         r.Backends,
		PreferredBackend: r.PreferredBackend,
	}
}

// FromEnsemble builds a wire request from an engine request.
func FromEnsemble(req ensemble.Request) RunEnsembleRequest {
	return RunEnsembleRequest{
		Task:             req.Task,
		Domain:           req.Domain,
		Tier:             req.Tier,
		Backends:         req.Backends,
		PreferredBackend: req.PreferredBackend,
	}
}

// RunEnsembleEvent streams back progress from the daemon.
type RunEnsembleEvent struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	ensemble.Event
}

// BackendInfo describes one configured backend and the tiers that list it.
type BackendInfo struct {
	backend.Spec `yaml:",inline"`
	Tiers        []tier.Tier `json:"tiers" yaml:"tiers"`
}
