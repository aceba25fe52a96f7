package router_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/router"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

type specMap map[string]backend.Spec

func (m specMap) Spec(id string) (backend.Spec, bool) {
	s, ok := m[id]
	return s, ok
}

func capped(id string, t tier.Tier) backend.Spec {
	return backend.Spec{ID: id, MaxTier: &t}
}

func testSpecs() specMap {
	return specMap{
		"nano":     capped("nano", tier.Moderate),
		"mini":     capped("mini", tier.Complex),
		"standard": capped("standard", tier.Advanced),
		"pro":      {ID: "pro"},
		"ultra":    {ID: "ultra"},
	}
}

func testTiers() map[tier.Tier][]string {
	return map[tier.Tier][]string{
		tier.Simple:   {"nano", "mini"},
		tier.Moderate: {"mini", "standard"},
		tier.Complex:  {"standard", "pro"},
		tier.Advanced: {"standard", "pro", "ultra"},
		tier.Critical: {"pro", "ultra"},
	}
}

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	r, err := router.New(testTiers(), testSpecs(), nil)
	require.NoError(t, err)
	return r
}

func TestRouteByScore(t *testing.T) {
	r := newRouter(t)

	cases := []struct {
		score    float64
		tier     tier.Tier
		backends []string
	}{
		{2.0, tier.Simple, []string{"nano", "mini"}},
		{3.0, tier.Simple, []string{"nano", "mini"}},
		{4.5, tier.Moderate, []string{"mini", "standard"}},
		{7.0, tier.Complex, []string{"standard", "pro"}},
		{8.2, tier.Advanced, []string{"standard", "pro", "ultra"}},
		{10.0, tier.Critical, []string{"pro", "ultra"}},
	}

	for _, tc := range cases {
		d := r.Route(tc.score, router.Options{})
		require.Equal(t, tc.tier, d.Tier, "score %v", tc.score)
		if diff := cmp.Diff(tc.backends, d.Backends); diff != "" {
			t.Fatalf("score %v backends mismatch (-want +got):\n%s", tc.score, diff)
		}
		require.False(t, d.ElevationSuggested)
		require.Nil(t, d.ElevationTarget)
	}
}

func TestRoutePreferredBackendDowngrades(t *testing.T) {
	r := newRouter(t)

	for _, score := range []float64{5.5, 7.5, 9.5, 10} {
		d := r.Route(score, router.Options{PreferredBackend: "nano"})
		computed := tier.FromScore(score)

		require.Equal(t, tier.Moderate, d.Tier)
		require.True(t, d.ElevationSuggested)
		require.NotNil(t, d.ElevationTarget)
		require.Equal(t, computed, *d.ElevationTarget)
		require.Equal(t, []string{"nano", "mini", "standard"}, d.Backends)
		require.Contains(t, d.Reason, "elevation")
	}
}

func TestRoutePreferredBackendWithinCap(t *testing.T) {
	r := newRouter(t)

	d := r.Route(2, router.Options{PreferredBackend: "mini"})
	require.Equal(t, tier.Simple, d.Tier)
	require.False(t, d.ElevationSuggested)
	require.Equal(t, []string{"mini", "nano"}, d.Backends)

	d = r.Route(10, router.Options{PreferredBackend: "ultra"})
	require.Equal(t, tier.Critical, d.Tier)
	require.Equal(t, []string{"ultra", "pro"}, d.Backends)
}

func TestRouteUnknownPreferredIsIgnored(t *testing.T) {
	r := newRouter(t)

	d := r.Route(2, router.Options{PreferredBackend: "ghost"})
	require.Equal(t, tier.Simple, d.Tier)
	require.Equal(t, []string{"nano", "mini"}, d.Backends)
	require.False(t, d.ElevationSuggested)
	require.True(t, strings.Contains(d.Reason, "ghost"))
}

func TestRouteTierOverride(t *testing.T) {
	r := newRouter(t)

	override := tier.Critical
	d := r.Route(1, router.Options{TierOverride: &override})
	require.Equal(t, tier.Critical, d.Tier)
	require.Equal(t, []string{"pro", "ultra"}, d.Backends)

	d = r.Route(1, router.Options{TierOverride: &override, PreferredBackend: "mini"})
	require.Equal(t, tier.Complex, d.Tier)
	require.True(t, d.ElevationSuggested)
	require.Equal(t, tier.Critical, *d.ElevationTarget)
}

func TestRouteMissingTierFallsBackToLowest(t *testing.T) {
	r, err := router.New(map[tier.Tier][]string{tier.Simple: {"nano"}}, testSpecs(), nil)
	require.NoError(t, err)

	d := r.Route(9.9, router.Options{})
	require.Equal(t, tier.Critical, d.Tier)
	require.Equal(t, []string{"nano"}, d.Backends)
	require.Contains(t, d.Reason, "simple")
}

func TestNewRejectsBadTables(t *testing.T) {
	_, err := router.New(map[tier.Tier][]string{tier.Complex: {"pro"}}, testSpecs(), nil)
	require.Error(t, err)

	_, err = router.New(map[tier.Tier][]string{tier.Simple: {"ghost"}}, testSpecs(), nil)
	require.True(t, errors.Is(err, backend.ErrUnknownBackend))

	_, err = router.New(testTiers(), nil, nil)
	require.Error(t, err)
}

func TestTiersAndBackendsAreCopies(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, tier.All(), r.Tiers())

	ids, ok := r.Backends(tier.Simple)
	require.True(t, ok)
	ids[0] = "mutated"

	again, _ := r.Backends(tier.Simple)
	require.Equal(t, "nano", again[0])
}
