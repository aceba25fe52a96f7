package consensus

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/observability"
)

// Resolver looks up backend clients by id. *backend.Registry satisfies it.
type Resolver interface {
	Lookup(id string) (backend.Spec, backend.Client, error)
}

// Options tunes an Aggregator. Zero values pick defaults.
type Options struct {
	Policy         Policy
	MaxConcurrency int
	// CallTimeout bounds each backend call; 0 leaves only the caller's context.
	CallTimeout time.Duration
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// Aggregator invokes backends concurrently and builds the consensus.
type Aggregator struct {
	resolver Resolver
	policy   Policy
	limit    int
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAggregator constructs an Aggregator over resolver.
func NewAggregator(resolver Resolver, opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}
	return &Aggregator{
		resolver: resolver,
		policy:   opts.Policy.withDefaults(),
		limit:    opts.MaxConcurrency,
		timeout:  opts.CallTimeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Policy returns the policy used by Aggregate.
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Collect calls every backend in ids once and returns one response per id, in the
// order of ids. A failing backend never cancels its siblings; its error is recorded
// on its own response.
func (a *Aggregator) Collect(ctx context.Context, prompt string, ids []string) []backend.Response {
	out := make([]backend.Response, len(ids))

	var g errgroup.Group
	g.SetLimit(a.limit)
	for i, id := range ids {
		g.Go(func() error {
			out[i] = a.invoke(ctx, prompt, id)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Aggregate collects responses and folds them with the aggregator's policy.
func (a *Aggregator) Aggregate(ctx context.Context, prompt string, ids []string) (Consensus, []backend.Response) {
	responses := a.Collect(ctx, prompt, ids)
	return Build(responses, a.policy), responses
}

func (a *Aggregator) invoke(ctx context.Context, prompt, id string) backend.Response {
	_, client, err := a.resolver.Lookup(id)
	if err != nil {
		a.logger.Warn("backend lookup failed", zap.String("backend", id), zap.Error(err))
		a.metrics.RecordBackendCall(id, false, 0)
		return backend.Response{BackendID: id, Error: err.Error()}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := client.Invoke(ctx, prompt)
	resp.BackendID = id
	if err != nil {
		resp = backend.Response{BackendID: id, LatencyMs: resp.LatencyMs, Error: err.Error()}
	}

	if resp.Failed() {
		a.logger.Warn("backend call failed", zap.String("backend", id), zap.String("error", resp.Error))
	} else {
		a.logger.Debug("backend call finished", zap.String("backend", id), zap.Float64("latency_ms", resp.LatencyMs))
	}
	a.metrics.RecordBackendCall(id, !resp.Failed(), resp.LatencyMs)
	return resp
}
