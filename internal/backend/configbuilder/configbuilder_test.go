package configbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend/configbuilder"
	"github.com/swcstudio/fsl-continuum-sub003/internal/config"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

func TestBuildRegistryFromDefaults(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	reg, err := configbuilder.BuildRegistry(cfg)
	require.NoError(t, err)
	require.Equal(t, len(cfg.Backends), reg.Len())
	require.Equal(t, cfg.BackendIDs(), reg.IDs())

	spec, c, err := reg.Lookup("nano")
	require.NoError(t, err)
	require.Equal(t, "nano", c.ID())
	require.Equal(t, tier.Moderate, spec.SupportsUpTo())
	require.IsType(t, &backend.Simulated{}, c)
}

func TestBuildRegistryClientTypes(t *testing.T) {
	cfg := &config.Config{
		Backends: map[string]config.BackendConfig{
			"remote": {Type: "OpenRouter", Model: "m", BaseURL: "http://example.com", QualityScore: 0.8},
			"local":  {Type: "ollama", Model: "llama3"},
			"slow":   {Type: "simulated", RateLimit: 2},
		},
	}

	reg, err := configbuilder.BuildRegistry(cfg)
	require.NoError(t, err)

	spec, _, err := reg.Lookup("remote")
	require.NoError(t, err)
	require.Equal(t, "openrouter", spec.Type)

	_, c, err := reg.Lookup("slow")
	require.NoError(t, err)
	require.IsType(t, &backend.RateLimited{}, c)
	require.Equal(t, "slow", c.ID())
}

func TestBuildRegistryUnknownType(t *testing.T) {
	cfg := &config.Config{
		Backends: map[string]config.BackendConfig{"x": {Type: "carrier-pigeon"}},
	}
	_, err := configbuilder.BuildRegistry(cfg)
	require.Error(t, err)
}
