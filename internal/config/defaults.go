package config

import (
	"time"

	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

func tierPtr(t tier.Tier) *tier.Tier { return &t }

// DefaultBackends is the built-in backend table. All entries are simulated so the
// binary works without credentials.
func DefaultBackends() map[string]BackendConfig {
	return map[string]BackendConfig{
		"nano": {
			Type: "simulated", Model: "nano-1",
			CostPerUnit: 0.1, QualityScore: 0.62,
			MaxTier: tierPtr(tier.Moderate), BaseLatency: 120 * time.Millisecond,
		},
		"mini": {
			Type: "simulated", Model: "mini-2",
			CostPerUnit: 0.3, QualityScore: 0.71,
			MaxTier: tierPtr(tier.Complex), BaseLatency: 250 * time.Millisecond,
		},
		"standard": {
			Type: "simulated", Model: "standard-3",
			CostPerUnit: 1.0, QualityScore: 0.80,
			MaxTier: tierPtr(tier.Advanced), BaseLatency: 600 * time.Millisecond,
		},
		"pro": {
			Type: "simulated", Model: "pro-4",
			CostPerUnit: 3.0, QualityScore: 0.89,
			MaxTier: tierPtr(tier.Critical), BaseLatency: 1200 * time.Millisecond,
		},
		"ultra": {
			Type: "simulated", Model: "ultra-5",
			CostPerUnit: 10.0, QualityScore: 0.96,
			MaxTier: tierPtr(tier.Critical), BaseLatency: 2500 * time.Millisecond,
		},
	}
}

// DefaultTiers maps each tier to its backends, cheapest first.
func DefaultTiers() map[string][]string {
	return map[string][]string{
		tier.Simple.String():   {"nano", "mini"},
		tier.Moderate.String(): {"mini", "standard"},
		tier.Complex.String():  {"standard", "pro"},
		tier.Advanced.String(): {"standard", "pro", "ultra"},
		tier.Critical.String(): {"pro", "ultra"},
	}
}
