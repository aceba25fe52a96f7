package configbuilder

import (
	"fmt"
	"strings"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend/providers/ollama"
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend/providers/openai"
	"github.com/swcstudio/fsl-continuum-sub003/internal/config"
)

// BuildRegistry constructs a registry and backend clients from config.
func BuildRegistry(cfg *config.Config) (*backend.Registry, error) {
	reg := backend.NewRegistry()

	for _, id := range cfg.BackendIDs() {
		bCfg := cfg.Backends[id]
		spec := SpecFor(id, bCfg)

		c, err := buildClient(spec, bCfg)
		if err != nil {
			return nil, err
		}
		if bCfg.RateLimit > 0 {
			c = backend.NewRateLimited(c, bCfg.RateLimit)
		}
		if err := reg.Register(spec, c); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// SpecFor extracts the static attributes of a configured backend.
func SpecFor(id string, cfg config.BackendConfig) backend.Spec {
	return backend.Spec{
		ID:           id,
		Type:         strings.ToLower(strings.TrimSpace(cfg.Type)),
		Model:        cfg.Model,
		CostPerUnit:  cfg.CostPerUnit,
		QualityScore: cfg.QualityScore,
		MaxTier:      cfg.MaxTier,
	}
}

func buildClient(spec backend.Spec, cfg config.BackendConfig) (backend.Client, error) {
	switch spec.Type {
	case "simulated":
		return backend.NewSimulated(spec, backend.SimulatedOptions{
			BaseLatency: cfg.BaseLatency,
			Delay:       cfg.SimulateDelay,
			Fail:        cfg.Fail,
		}), nil
	case "openai", "openrouter", "vllm", "lmstudio", "custom":
		return openai.NewClient(spec, cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case "ollama":
		return ollama.NewClient(spec, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q for backend %s", cfg.Type, spec.ID)
	}
}
