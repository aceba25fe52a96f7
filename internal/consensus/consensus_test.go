package consensus_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/backend/mock"
	"github.com/swcstudio/fsl-continuum-sub003/internal/consensus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ok(id, text string, confidence, cost, latency float64) backend.Response {
	return backend.Response{BackendID: id, Text: text, Confidence: confidence, Cost: cost, LatencyMs: latency}
}

func failed(id string) backend.Response {
	return backend.Response{BackendID: id, Error: "backend unavailable"}
}

func TestBuildAllFailed(t *testing.T) {
	c := consensus.Build([]backend.Response{failed("a"), failed("b")}, consensus.DefaultPolicy())
	require.Equal(t, consensus.Consensus{}, c)
	require.True(t, c.Degraded())

	c = consensus.Build(nil, consensus.DefaultPolicy())
	require.Equal(t, "", c.Text)
	require.Zero(t, c.Confidence)
	require.Zero(t, c.Agreement)
}

func TestBuildSingleValid(t *testing.T) {
	c := consensus.Build([]backend.Response{failed("a"), ok("b", "answer", 0.7, 0.2, 100)}, consensus.DefaultPolicy())
	require.Equal(t, "answer", c.Text)
	require.Equal(t, 0.7, c.Confidence)
	require.Equal(t, 1.0, c.Agreement)
	require.Equal(t, 1, c.Valid)
	require.InDelta(t, 0.2, c.TotalCost, 1e-9)
	require.InDelta(t, 100, c.AverageLatencyMs, 1e-9)
}

func TestBuildMultipleValid(t *testing.T) {
	responses := []backend.Response{
		ok("a", "first", 0.6, 0.1, 100),
		failed("x"),
		ok("b", "second", 0.8, 0.3, 300),
	}
	c := consensus.Build(responses, consensus.DefaultPolicy())

	want := consensus.Consensus{
		Text:             "first",
		Confidence:       0.7,
		Agreement:        consensus.DefaultAgreement,
		TotalCost:        0.4,
		AverageLatencyMs: 200,
		Valid:            2,
	}
	if diff := cmp.Diff(want, c, cmp.Comparer(func(x, y float64) bool { return x-y < 1e-9 && y-x < 1e-9 })); diff != "" {
		t.Fatalf("consensus mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPolicyOverrides(t *testing.T) {
	responses := []backend.Response{ok("a", "short", 0.2, 0, 0), ok("b", "longer answer", 0.9, 0, 0)}
	policy := consensus.Policy{
		Select: func(valid []backend.Response) string { return valid[len(valid)-1].Text },
	}

	c := consensus.Build(responses, policy)
	require.Equal(t, "longer answer", c.Text)
	require.InDelta(t, 0.55, c.Confidence, 1e-9)
	require.Equal(t, consensus.DefaultAgreement, c.Agreement)
}

func TestOverlapAgreement(t *testing.T) {
	same := []backend.Response{ok("a", "Use a hash map", 1, 0, 0), ok("b", "use a HASH map", 1, 0, 0)}
	require.InDelta(t, 1.0, consensus.OverlapAgreement(same), 1e-9)

	disjoint := []backend.Response{ok("a", "alpha beta", 1, 0, 0), ok("b", "gamma delta", 1, 0, 0)}
	require.InDelta(t, 0.0, consensus.OverlapAgreement(disjoint), 1e-9)

	half := []backend.Response{ok("a", "one two", 1, 0, 0), ok("b", "one three", 1, 0, 0)}
	require.InDelta(t, 0.5, consensus.OverlapAgreement(half), 1e-9)
}

func TestPolicyFor(t *testing.T) {
	valid := []backend.Response{ok("a", "x y", 1, 0, 0), ok("b", "x z", 1, 0, 0)}

	p, err := consensus.PolicyFor("", 0)
	require.NoError(t, err)
	require.Equal(t, consensus.DefaultAgreement, p.Agreement(valid))

	p, err = consensus.PolicyFor("fixed", 0.6)
	require.NoError(t, err)
	require.Equal(t, 0.6, p.Agreement(valid))

	p, err = consensus.PolicyFor("Overlap", 0)
	require.NoError(t, err)
	require.InDelta(t, 0.5, p.Agreement(valid), 1e-9)

	_, err = consensus.PolicyFor("vote", 0)
	require.Error(t, err)
}

type resolver map[string]backend.Client

func (r resolver) Lookup(id string) (backend.Spec, backend.Client, error) {
	c, found := r[id]
	if !found {
		return backend.Spec{}, nil, fmt.Errorf("%q: %w", id, backend.ErrUnknownBackend)
	}
	return backend.Spec{ID: id}, c, nil
}

func delayed(id string, d time.Duration, confidence float64) *mock.Client {
	return &mock.Client{IDValue: id, InvokeFn: func(ctx context.Context, prompt string) (backend.Response, error) {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return backend.Response{}, fmt.Errorf("%s: %w: %v", id, backend.ErrBackendUnavailable, ctx.Err())
		}
		return backend.Response{BackendID: id, Text: id + ":" + prompt, Confidence: confidence, LatencyMs: float64(d.Milliseconds())}, nil
	}}
}

func failing(id string) *mock.Client {
	return &mock.Client{IDValue: id, InvokeFn: func(ctx context.Context, prompt string) (backend.Response, error) {
		return backend.Response{LatencyMs: 5}, fmt.Errorf("%s: %w: connection reset", id, backend.ErrBackendUnavailable)
	}}
}

func TestCollectPreservesCallerOrder(t *testing.T) {
	r := resolver{
		"slow":   delayed("slow", 40*time.Millisecond, 0.9),
		"fast":   delayed("fast", time.Millisecond, 0.5),
		"medium": delayed("medium", 15*time.Millisecond, 0.7),
	}
	agg := consensus.NewAggregator(r, consensus.Options{})

	responses := agg.Collect(context.Background(), "q", []string{"slow", "fast", "medium"})
	require.Len(t, responses, 3)
	require.Equal(t, "slow", responses[0].BackendID)
	require.Equal(t, "fast", responses[1].BackendID)
	require.Equal(t, "medium", responses[2].BackendID)
	require.Equal(t, "slow:q", responses[0].Text)
}

func TestAggregateIsolatesFailures(t *testing.T) {
	r := resolver{
		"good": delayed("good", time.Millisecond, 0.8),
		"bad":  failing("bad"),
	}
	agg := consensus.NewAggregator(r, consensus.Options{})

	c, responses := agg.Aggregate(context.Background(), "q", []string{"bad", "ghost", "good"})
	require.Len(t, responses, 3)

	require.True(t, responses[0].Failed())
	require.Equal(t, "bad", responses[0].BackendID)
	require.Empty(t, responses[0].Text)
	require.Contains(t, responses[0].Error, backend.ErrBackendUnavailable.Error())

	require.True(t, responses[1].Failed())
	require.Contains(t, responses[1].Error, backend.ErrUnknownBackend.Error())

	require.False(t, responses[2].Failed())
	require.Equal(t, "good:q", c.Text)
	require.Equal(t, 0.8, c.Confidence)
	require.Equal(t, 1.0, c.Agreement)
}

func TestAggregateAllFail(t *testing.T) {
	agg := consensus.NewAggregator(resolver{"a": failing("a"), "b": failing("b")}, consensus.Options{})

	c, responses := agg.Aggregate(context.Background(), "q", []string{"a", "b"})
	require.Len(t, responses, 2)
	require.True(t, c.Degraded())
	require.Equal(t, "", c.Text)
	require.Zero(t, c.Confidence)
	require.Zero(t, c.Agreement)
}

func TestAggregateIsPure(t *testing.T) {
	reg := backend.NewRegistry()
	for _, id := range []string{"x", "y"} {
		spec := backend.Spec{ID: id, CostPerUnit: 1, QualityScore: 0.75}
		require.NoError(t, reg.Register(spec, backend.NewSimulated(spec, backend.SimulatedOptions{BaseLatency: 10 * time.Millisecond})))
	}
	agg := consensus.NewAggregator(reg, consensus.Options{})

	c1, r1 := agg.Aggregate(context.Background(), "same prompt", []string{"x", "y"})
	c2, r2 := agg.Aggregate(context.Background(), "same prompt", []string{"x", "y"})
	require.Equal(t, c1, c2)
	require.Equal(t, r1, r2)
}

func TestCollectRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	client := func(id string) *mock.Client {
		return &mock.Client{IDValue: id, InvokeFn: func(ctx context.Context, prompt string) (backend.Response, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return backend.Response{BackendID: id, Text: "ok"}, nil
		}}
	}

	r := resolver{}
	var ids []string
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("b%d", i)
		r[id] = client(id)
		ids = append(ids, id)
	}

	agg := consensus.NewAggregator(r, consensus.Options{MaxConcurrency: 2})
	responses := agg.Collect(context.Background(), "q", ids)
	require.Len(t, responses, 6)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestCollectCallTimeout(t *testing.T) {
	r := resolver{
		"hang": delayed("hang", time.Minute, 0.9),
		"fast": delayed("fast", time.Millisecond, 0.5),
	}
	agg := consensus.NewAggregator(r, consensus.Options{CallTimeout: 20 * time.Millisecond})

	c, responses := agg.Aggregate(context.Background(), "q", []string{"hang", "fast"})
	require.True(t, responses[0].Failed())
	require.False(t, responses[1].Failed())
	require.Equal(t, "fast:q", c.Text)
}

func TestCollectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := consensus.NewAggregator(resolver{"a": delayed("a", time.Minute, 1)}, consensus.Options{})
	responses := agg.Collect(ctx, "q", []string{"a"})
	require.True(t, responses[0].Failed())
	require.True(t, errors.Is(ctx.Err(), context.Canceled))
}
