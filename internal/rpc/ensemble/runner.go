package ensemble

import (
	"context"

	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
)

// Runner executes a request and yields streamed events. *ensemble.Engine satisfies it.
type Runner interface {
	Stream(ctx context.Context, req ensemble.Request) (<-chan ensemble.Event, error)
}

// wrap tags engine events with the caller's correlation id.
func wrap(ctx context.Context, events <-chan ensemble.Event, correlationID string) <-chan rpc.RunEnsembleEvent {
	out := make(chan rpc.RunEnsembleEvent)
	go func() {
		defer close(out)
		for ev := range events {
			select {
			case out <- rpc.RunEnsembleEvent{CorrelationID: correlationID, Event: ev}:
			case <-ctx.Done():
				for range events {
				}
				return
			}
		}
	}()
	return out
}
