package ensemble

import (
	"context"
	"errors"
	"net/http"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"

	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/observability"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc/connectjson"
)

const ConnectRunProcedure = "/fsl.ensemble.v1.EnsembleService/Run"

// NewConnectHandler builds a Connect server-stream handler for Run.
func NewConnectHandler(runner Runner, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectRunHandler{runner: runner, metrics: metrics}
	return ConnectRunProcedure, connect.NewServerStreamHandler(ConnectRunProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectRunHandler struct {
	runner  Runner
	metrics *observability.Metrics
}

func (h *connectRunHandler) handle(ctx context.Context, req *connect.Request[rpc.RunEnsembleRequest], stream *connect.ServerStream[rpc.RunEnsembleEvent]) error {
	h.metrics.IncActiveSessions("connect")
	defer h.metrics.DecActiveSessions("connect")

	if req.Msg == nil {
		h.metrics.RecordTransportError("connect", "missing_request")
		return connect.NewError(connect.CodeInvalidArgument, errors.New("request body is required"))
	}
	msg := *req.Msg
	if msg.CorrelationID == "" {
		msg.CorrelationID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := h.runner.Stream(ctx, msg.Ensemble())
	if err != nil {
		if ensemble.IsInputError(err) {
			h.metrics.RecordTransportError("connect", "invalid_request")
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
		h.metrics.RecordTransportError("connect", "runner_error")
		return connect.NewError(connect.CodeInternal, err)
	}

	for ev := range wrap(ctx, events, msg.CorrelationID) {
		if err := stream.Send(&ev); err != nil {
			h.metrics.RecordTransportError("connect", "send")
			return err
		}
	}
	return nil
}
