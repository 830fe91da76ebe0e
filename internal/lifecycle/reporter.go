package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/dwsmith1983/agentcore-gateway/internal/cfnresponse"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ParameterWriter persists gateway identifiers.
type ParameterWriter interface {
	PutGatewayParameters(ctx context.Context, prefix string, res types.GatewayResult) error
}

// ResponseSender delivers the CloudFormation response.
type ResponseSender interface {
	Send(ctx context.Context, url string, resp *cfn.Response) error
}

// Notifier is told about every final outcome. Implementations must not block
// the response for long and handle their own errors.
type Notifier interface {
	Notify(ctx context.Context, event cfn.Event, outcome types.Outcome)
}

// Reporter persists successful results and reports every outcome.
type Reporter struct {
	params   ParameterWriter
	sender   ResponseSender
	notifier Notifier
	logger   *slog.Logger
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithNotifier adds an outcome notifier.
func WithNotifier(n Notifier) ReporterOption {
	return func(r *Reporter) { r.notifier = n }
}

// WithReporterLogger sets the logger (default slog.Default()).
func WithReporterLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) { r.logger = l }
}

// NewReporter creates a Reporter.
func NewReporter(params ParameterWriter, sender ResponseSender, opts ...ReporterOption) *Reporter {
	r := &Reporter{params: params, sender: sender, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Report writes the gateway parameters under prefix when outcome succeeded
// and prefix is set, then sends the response. A failed write turns the
// outcome into FAILED. Delivery failures are logged; the returned outcome is
// the one that was reported.
func (r *Reporter) Report(ctx context.Context, event cfn.Event, outcome types.Outcome, prefix string) types.Outcome {
	logger := r.logger.With("requestId", event.RequestID, "logicalResourceId", event.LogicalResourceID)

	if outcome.Status == types.OutcomeSuccess && prefix != "" {
		res := types.GatewayResult{
			GatewayID:  outcome.Data[types.DataGatewayID],
			GatewayURL: outcome.Data[types.DataGatewayURL],
			TargetID:   outcome.Data[types.DataTargetID],
		}
		if err := r.params.PutGatewayParameters(ctx, prefix, res); err != nil {
			logger.Error("failed to store gateway parameters", "prefix", prefix, "error", err)
			outcome = failed(outcome.PhysicalID, fmt.Errorf("storing gateway parameters: %w", err))
		}
	}

	resp := cfnresponse.NewResponse(event, outcome)
	if err := r.sender.Send(ctx, event.ResponseURL, resp); err != nil {
		metrics.CallbacksFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(outcome.Status))))
		logger.Error("failed to send CloudFormation response", "status", outcome.Status, "error", err)
	}

	if r.notifier != nil {
		r.notifier.Notify(ctx, event, outcome)
	}
	return outcome
}
