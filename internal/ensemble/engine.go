// Package ensemble runs the full pipeline: classify the task, route it to a tier,
// fan it out to that tier's backends and fold the answers into one Result.
package ensemble

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/complexity"
	"github.com/swcstudio/fsl-continuum-sub003/internal/consensus"
	"github.com/swcstudio/fsl-continuum-sub003/internal/observability"
	"github.com/swcstudio/fsl-continuum-sub003/internal/router"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

// Engine wires the classifier, router and aggregator together. It keeps no
// per-request state and is safe for concurrent use.
type Engine struct {
	classifier *complexity.Classifier
	router     *router.Router
	aggregator *consensus.Aggregator
	logger     *zap.Logger
	metrics    *observability.Metrics

	now   func() time.Time
	newID func() string
}

// New constructs an Engine. logger and metrics may be nil.
func New(classifier *complexity.Classifier, rt *router.Router, agg *consensus.Aggregator, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		classifier: classifier,
		router:     rt,
		aggregator: agg,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Classifier exposes the engine's classifier.
func (e *Engine) Classifier() *complexity.Classifier {
	return e.classifier
}

// Router exposes the engine's router.
func (e *Engine) Router() *router.Router {
	return e.router
}

type plan struct {
	id       string
	req      Request
	analysis complexity.Analysis
	decision router.Decision
	backends []string
	start    time.Time
}

// Plan classifies and routes req without calling any backend.
func (e *Engine) Plan(req Request) (complexity.Analysis, router.Decision, error) {
	p, err := e.prepare(req)
	if err != nil {
		return complexity.Analysis{}, router.Decision{}, err
	}
	return p.analysis, p.decision, nil
}

func (e *Engine) prepare(req Request) (plan, error) {
	p := plan{id: e.newID(), req: req, start: e.now()}

	analysis, err := e.classifier.Analyze(req.Task, req.Domain)
	if err != nil {
		return plan{}, err
	}
	p.analysis = analysis

	opts := router.Options{PreferredBackend: strings.TrimSpace(req.PreferredBackend)}
	if name := strings.TrimSpace(req.Tier); name != "" {
		t, err := tier.Parse(name)
		if err != nil {
			return plan{}, fmt.Errorf("%w: %q", ErrInvalidTier, req.Tier)
		}
		opts.TierOverride = &t
	}

	p.decision = e.router.Route(analysis.Score, opts)
	if p.decision.ElevationSuggested && p.decision.ElevationTarget != nil {
		e.metrics.RecordElevation(p.decision.ElevationTarget.String(), p.decision.Tier.String())
	}

	p.backends = p.decision.Backends
	if explicit := cleanIDs(req.Backends); len(explicit) > 0 {
		p.backends = explicit
	}
	return p, nil
}

func (e *Engine) finish(p plan, c consensus.Consensus, responses []backend.Response) Result {
	res := Result{
		ID:                 p.id,
		Task:               p.req.Task,
		Domain:             p.analysis.Domain,
		Complexity:         p.analysis.Score,
		Tier:               p.decision.Tier,
		Consensus:          c.Text,
		Confidence:         c.Confidence,
		Agreement:          c.Agreement,
		Backends:           p.backends,
		Responses:          responses,
		TotalCost:          c.TotalCost,
		AverageLatencyMs:   c.AverageLatencyMs,
		ElevationSuggested: p.decision.ElevationSuggested,
		ElevationTarget:    p.decision.ElevationTarget,
		Reason:             p.decision.Reason,
		Degraded:           c.Degraded(),
		Timestamp:          p.start.UTC().Format(time.RFC3339),
	}

	outcome := "ok"
	if res.Degraded {
		outcome = "degraded"
		e.logger.Warn("ensemble degraded: no backend answered",
			zap.String("request_id", res.ID),
			zap.Strings("backends", res.Backends),
		)
	}
	e.metrics.RecordEnsembleRun(res.Tier.String(), outcome, e.now().Sub(p.start), res.Confidence)
	e.logger.Info("ensemble run finished",
		zap.String("request_id", res.ID),
		zap.String("tier", res.Tier.String()),
		zap.Float64("complexity", res.Complexity),
		zap.Float64("confidence", res.Confidence),
		zap.Int("valid", c.Valid),
		zap.Int("backends", len(res.Backends)),
	)
	return res
}

// Run executes the whole pipeline. Only input errors are returned; backend
// failures are reported inside the Result.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	p, err := e.prepare(req)
	if err != nil {
		return Result{}, err
	}

	c, responses := e.aggregator.Aggregate(ctx, req.Task, p.backends)
	return e.finish(p, c, responses), nil
}

// Stream executes the pipeline and reports each step on the returned channel,
// which is closed after the done or error event. Input errors are returned
// before any event is sent.
func (e *Engine) Stream(ctx context.Context, req Request) (<-chan Event, error) {
	p, err := e.prepare(req)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 4)
	go func() {
		defer close(events)

		send := func(ev Event) bool {
			ev.RequestID = p.id
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		analysis := p.analysis
		if !send(Event{Type: EventClassified, Analysis: &analysis}) {
			return
		}
		decision := p.decision
		decision.Backends = p.backends
		if !send(Event{Type: EventRouted, Decision: &decision}) {
			return
		}

		responses := e.aggregator.Collect(ctx, req.Task, p.backends)
		if err := ctx.Err(); err != nil {
			send(Event{Type: EventError, Error: err.Error()})
			return
		}
		for i := range responses {
			resp := responses[i]
			if !send(Event{Type: EventResponse, Response: &resp}) {
				return
			}
		}

		c := consensus.Build(responses, e.aggregator.Policy())
		if !send(Event{Type: EventConsensus, Consensus: &c}) {
			return
		}
		res := e.finish(p, c, responses)
		send(Event{Type: EventDone, Result: &res})
	}()

	return events, nil
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
