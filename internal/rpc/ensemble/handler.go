package ensemble

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/observability"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
)

// RunPath is the NDJSON streaming endpoint.
const RunPath = "/ensemble/run"

// Handler processes RunEnsemble requests and streams NDJSON events.
type Handler struct {
	runner  Runner
	metrics *observability.Metrics
}

// NewHandler constructs a handler instance.
func NewHandler(runner Runner, metrics *observability.Metrics) *Handler {
	return &Handler{runner: runner, metrics: metrics}
}

// ServeHTTP handles POST /ensemble/run with an NDJSON stream of RunEnsembleEvent.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.metrics.RecordTransportError("ndjson", "method_not_allowed")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.metrics.IncActiveSessions("ndjson")
	defer h.metrics.DecActiveSessions("ndjson")

	var req rpc.RunEnsembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RecordTransportError("ndjson", "decode")
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	events, err := h.runner.Stream(ctx, req.Ensemble())
	if err != nil {
		if ensemble.IsInputError(err) {
			h.metrics.RecordTransportError("ndjson", "invalid_request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.metrics.RecordTransportError("ndjson", "runner_error")
		http.Error(w, fmt.Sprintf("runner error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	writer := bufio.NewWriter(w)
	enc := json.NewEncoder(writer)
	for ev := range wrap(ctx, events, req.CorrelationID) {
		if err := enc.Encode(ev); err != nil {
			h.metrics.RecordTransportError("ndjson", "write")
			break
		}
		writer.Flush()
		flusher.Flush()
	}
}
