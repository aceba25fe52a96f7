package ensemble

import (
	"encoding/json"
	"net/http"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

// BackendsPath serves the backend table.
const BackendsPath = "/backends"

// TierLister reports the backends configured for a tier. *router.Router satisfies it.
type TierLister interface {
	Tiers() []tier.Tier
	Backends(t tier.Tier) ([]string, bool)
}

// BackendsHandler serves the configured backends as JSON, cheapest first.
type BackendsHandler struct {
	Registry *backend.Registry
	Tiers    TierLister
}

// ServeHTTP renders the backend table.
func (h BackendsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(BackendTable(h.Registry, h.Tiers))
}

// BackendTable lists every registered backend with the tiers that route to it.
func BackendTable(reg *backend.Registry, tiers TierLister) []rpc.BackendInfo {
	listed := make(map[string][]tier.Tier)
	if tiers != nil {
		for _, t := range tiers.Tiers() {
			ids, _ := tiers.Backends(t)
			for _, id := range ids {
				listed[id] = append(listed[id], t)
			}
		}
	}

	specs := reg.Specs()
	out := make([]rpc.BackendInfo, 0, len(specs))
	for _, s := range specs {
		ts := listed[s.ID]
		if ts == nil {
			ts = []tier.Tier{}
		}
		out = append(out, rpc.BackendInfo{Spec: s, Tiers: ts})
	}
	return out
}
