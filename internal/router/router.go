// Package router maps a complexity score to a tier and the ordered list of
// backends that should answer it.
//
// Each tier owns a hand-authored, cheapest-first backend list. A preferred
// backend caps the tier at whatever that backend supports; when the cap bites
// the decision carries an elevation suggestion instead of failing.
package router

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

// SpecSource resolves static backend attributes. *backend.Registry satisfies it.
type SpecSource interface {
	Spec(id string) (backend.Spec, bool)
}

// Options tunes a single routing call.
type Options struct {
	PreferredBackend string
	// TierOverride replaces the computed tier before the preferred backend cap is applied.
	TierOverride *tier.Tier
}

// Decision is the outcome of routing one score.
type Decision struct {
	Score              float64    `json:"score" yaml:"score"`
	Tier               tier.Tier  `json:"tier" yaml:"tier"`
	Backends           []string   `json:"backends" yaml:"backends"`
	ElevationSuggested bool       `json:"elevation_suggested" yaml:"elevation_suggested"`
	ElevationTarget    *tier.Tier `json:"elevation_target,omitempty" yaml:"elevation_target,omitempty"`
	Reason             string     `json:"reason" yaml:"reason"`
}

// Router holds the immutable tier table.
type Router struct {
	tiers  map[tier.Tier][]string
	specs  SpecSource
	logger *zap.Logger
}

// New validates the tier table against specs. The lowest tier must be present
// since it is the fallback for any tier without a list.
func New(tiers map[tier.Tier][]string, specs SpecSource, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if specs == nil {
		return nil, fmt.Errorf("router: spec source is required")
	}
	if len(tiers[tier.Lowest]) == 0 {
		return nil, fmt.Errorf("router: %s tier must list at least one backend", tier.Lowest)
	}

	table := make(map[tier.Tier][]string, len(tiers))
	for t, ids := range tiers {
		if !t.Valid() {
			return nil, fmt.Errorf("router: invalid tier %d", int(t))
		}
		for _, id := range ids {
			if _, ok := specs.Spec(id); !ok {
				return nil, fmt.Errorf("router: tier %s: %q: %w", t, id, backend.ErrUnknownBackend)
			}
		}
		table[t] = append([]string(nil), ids...)
	}

	return &Router{tiers: table, specs: specs, logger: logger}, nil
}

// Route picks the tier and backend list for score.
func (r *Router) Route(score float64, opts Options) Decision {
	computed := tier.FromScore(score)
	reason := fmt.Sprintf("score %.2f -> %s tier", score, computed)

	if opts.TierOverride != nil {
		if opts.TierOverride.Valid() {
			computed = *opts.TierOverride
			reason = fmt.Sprintf("score %.2f, tier overridden to %s", score, computed)
		} else {
			reason += "; ignored invalid tier override"
		}
	}

	d := Decision{Score: score, Tier: computed}

	preferred := ""
	if opts.PreferredBackend != "" {
		spec, ok := r.specs.Spec(opts.PreferredBackend)
		if !ok {
			reason += fmt.Sprintf("; preferred backend %q is not configured, ignored", opts.PreferredBackend)
		} else {
			preferred = spec.ID
			if limit := spec.SupportsUpTo(); computed > limit {
				target := computed
				d.Tier = limit
				d.ElevationSuggested = true
				d.ElevationTarget = &target
				reason += fmt.Sprintf("; capped at %s by %s, elevation to %s suggested", limit, spec.ID, target)
			}
		}
	}

	ids, ok := r.tiers[d.Tier]
	if !ok {
		ids = r.tiers[tier.Lowest]
		reason += fmt.Sprintf("; no backends for %s, using %s list", d.Tier, tier.Lowest)
	}

	d.Backends = make([]string, 0, len(ids)+1)
	if preferred != "" {
		d.Backends = append(d.Backends, preferred)
	}
	for _, id := range ids {
		if id != preferred {
			d.Backends = append(d.Backends, id)
		}
	}
	d.Reason = reason

	r.logger.Debug("route decided",
		zap.Float64("score", score),
		zap.String("tier", d.Tier.String()),
		zap.Strings("backends", d.Backends),
		zap.Bool("elevation_suggested", d.ElevationSuggested),
	)
	return d
}

// Backends returns a copy of the list configured for t and whether t had its own list.
func (r *Router) Backends(t tier.Tier) ([]string, bool) {
	ids, ok := r.tiers[t]
	return append([]string(nil), ids...), ok
}

// Tiers lists tiers with an explicit backend list, lowest first.
func (r *Router) Tiers() []tier.Tier {
	out := make([]tier.Tier, 0, len(r.tiers))
	for t := range r.tiers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
