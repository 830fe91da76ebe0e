package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/dwsmith1983/agentcore-gateway/internal/gateway"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dwsmith1983/agentcore-gateway/internal/lifecycle")

// Reconciler is the set of gateway operations requests are routed to.
type Reconciler interface {
	Create(ctx context.Context, req types.GatewayRequest) (types.GatewayResult, error)
	Update(ctx context.Context, physicalID, priorName string, req types.GatewayRequest) (types.GatewayResult, error)
	Delete(ctx context.Context, physicalID string)
}

// OutcomeReporter receives every outcome the dispatcher produces.
type OutcomeReporter interface {
	Report(ctx context.Context, event cfn.Event, outcome types.Outcome, prefix string) types.Outcome
}

// Dispatcher turns one custom resource event into exactly one reported
// outcome.
type Dispatcher struct {
	reconciler    Reconciler
	reporter      OutcomeReporter
	defaultRegion string
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher. defaultRegion is used when the event
// carries no Region property.
func NewDispatcher(rec Reconciler, reporter OutcomeReporter, defaultRegion string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		reconciler:    rec,
		reporter:      reporter,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// Handle reconciles the event and reports the outcome. It never panics and
// always reports exactly once.
func (d *Dispatcher) Handle(ctx context.Context, event cfn.Event) types.Outcome {
	ctx, span := tracer.Start(ctx, "lifecycle.Handle", trace.WithAttributes(
		attribute.String("cfn.request_type", string(event.RequestType)),
		attribute.String("cfn.logical_resource_id", event.LogicalResourceID),
	))
	defer span.End()

	logger := d.logger.With(
		"requestId", event.RequestID,
		"requestType", event.RequestType,
		"logicalResourceId", event.LogicalResourceID,
	)
	logger.Info("received event", "event", redacted(event))

	outcome, prefix := d.reconcile(ctx, logger, event)
	if outcome.Status == types.OutcomeFailed {
		logger.Error("reconciliation failed", "physicalResourceId", outcome.PhysicalID, "category", outcome.Category, "reason", outcome.Reason)
	}

	outcome = d.reporter.Report(ctx, event, outcome, prefix)

	attrs := []attribute.KeyValue{
		attribute.String("type", string(event.RequestType)),
		attribute.String("status", string(outcome.Status)),
	}
	if outcome.Category != "" {
		attrs = append(attrs, attribute.String("category", string(outcome.Category)))
	}
	metrics.Requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	span.SetAttributes(attribute.String("cfn.status", string(outcome.Status)))
	if outcome.Status == types.OutcomeFailed {
		span.SetStatus(codes.Error, outcome.Reason)
	}
	return outcome
}

// reconcile runs the request and returns its outcome and, for successes that
// persist, the parameter prefix.
func (d *Dispatcher) reconcile(ctx context.Context, logger *slog.Logger, event cfn.Event) (outcome types.Outcome, prefix string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during reconciliation", "panic", r, "stack", string(debug.Stack()))
			outcome = types.Failed(event.PhysicalResourceID, fmt.Sprintf("internal error: %v", r))
			outcome.Category = types.FailurePermanent
			prefix = ""
		}
	}()

	kind, err := KindOf(event.RequestType)
	if err != nil {
		return failed(event.PhysicalResourceID, err), ""
	}

	var (
		req       types.GatewayRequest
		priorName string
	)
	if ReadsProperties(kind) {
		req, err = ParseRequest(event.ResourceProperties, d.defaultRegion)
		if err != nil {
			return failed(event.PhysicalResourceID, err), ""
		}
	}
	if ReadsPriorName(kind) {
		priorName = PriorName(event.OldResourceProperties)
	}

	var res types.GatewayResult
	switch kind {
	case types.RequestCreate:
		res, err = d.reconciler.Create(ctx, req)
	case types.RequestUpdate:
		res, err = d.reconciler.Update(ctx, event.PhysicalResourceID, priorName, req)
	case types.RequestDelete:
		d.reconciler.Delete(ctx, event.PhysicalResourceID)
		physicalID := event.PhysicalResourceID
		if physicalID == "" {
			physicalID = types.NoPhysicalID
		}
		return types.Succeeded(physicalID, nil), ""
	}
	if err != nil {
		return failed(event.PhysicalResourceID, err), ""
	}

	if Persists(kind) {
		prefix = req.ParameterPrefix
	}
	return types.Succeeded(res.GatewayID, res.Data()), prefix
}

// failed builds a FAILED outcome for err, classified for logs and metrics.
func failed(physicalID string, err error) types.Outcome {
	outcome := types.Failed(physicalID, err.Error())
	outcome.Category = gateway.ClassifyFailure(err)
	return outcome
}

// redacted returns event without its pre-signed response URL.
func redacted(event cfn.Event) cfn.Event {
	if event.ResponseURL != "" {
		event.ResponseURL = "[redacted]"
	}
	return event
}
