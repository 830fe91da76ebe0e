package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/cenkalti/backoff/v5"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WaitUntilReady polls the gateway every readiness.pollInterval until it is
// READY. FAILED and DELETING fail immediately, as does any GetGateway error.
// Not reaching READY within readiness.maxWait returns an error wrapping
// ErrNotReady.
func (r *Reconciler) WaitUntilReady(ctx context.Context, gatewayID string) (err error) {
	ctx, span := tracer.Start(ctx, "gateway.WaitUntilReady", trace.WithAttributes(attribute.String("gateway.id", gatewayID)))
	defer func() { endSpan(span, err) }()

	polls := 0
	poll := func() (types.GatewayStatus, error) {
		polls++
		metrics.ReadinessPolls.Add(ctx, 1)

		out, err := r.api.GetGateway(ctx, &bac.GetGatewayInput{GatewayIdentifier: aws.String(gatewayID)})
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("GetGateway %s: %w", gatewayID, err))
		}

		status := types.GatewayStatus(out.Status)
		switch PhaseOf(status) {
		case PhaseReady:
			return status, nil
		case PhaseFailed:
			return status, backoff.Permanent(fmt.Errorf("gateway %s in unexpected status: %s", gatewayID, status))
		default:
			r.logger.Debug("waiting for gateway", "gatewayId", gatewayID, "status", status, "poll", polls)
			return status, fmt.Errorf("%w: %s", ErrNotReady, status)
		}
	}

	_, err = backoff.Retry(ctx, poll,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.settings.Readiness.PollInterval)),
		backoff.WithMaxElapsedTime(r.settings.Readiness.MaxWait),
	)
	span.SetAttributes(attribute.Int("gateway.polls", polls))
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return fmt.Errorf("gateway %s not ready after %s: %w", gatewayID, r.settings.Readiness.MaxWait, err)
		}
		return err
	}

	r.logger.Info("gateway ready", "gatewayId", gatewayID, "polls", polls)
	return nil
}
