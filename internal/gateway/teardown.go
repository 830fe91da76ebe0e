package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Delete removes every target of the gateway, pausing teardown.targetDeletePause
// after each deletion, then the gateway itself. It is best-effort: failures
// are logged and swallowed, and resources that are already gone count as
// deleted. After teardown.breakerThreshold consecutive failures the
// remaining calls are skipped.
func (r *Reconciler) Delete(ctx context.Context, physicalID string) {
	ctx, span := tracer.Start(ctx, "gateway.Delete", trace.WithAttributes(attribute.String("gateway.id", physicalID)))
	defer span.End()

	if physicalID == "" || physicalID == types.NoPhysicalID {
		r.logger.Info("no gateway to delete", "physicalId", physicalID)
		return
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "teardown/" + physicalID,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return int(c.ConsecutiveFailures) >= r.settings.Teardown.BreakerThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsNotFound(err)
		},
	})

	targets, err := r.listTargets(ctx, physicalID)
	switch {
	case IsNotFound(err):
		r.logger.Info("gateway already deleted", "gatewayId", physicalID)
		return
	case err != nil:
		r.teardownFailed(ctx, "list targets", physicalID, err)
	}

	for _, t := range targets {
		targetID := aws.ToString(t.TargetId)
		_, err := cb.Execute(func() (interface{}, error) {
			return r.api.DeleteGatewayTarget(ctx, &bac.DeleteGatewayTargetInput{
				GatewayIdentifier: aws.String(physicalID),
				TargetId:          aws.String(targetID),
			})
		})
		switch {
		case errors.Is(err, gobreaker.ErrOpenState):
			r.logger.Warn("skipping target deletion, too many failures", "gatewayId", physicalID, "targetId", targetID)
			continue
		case IsNotFound(err):
			r.logger.Info("target already deleted", "gatewayId", physicalID, "targetId", targetID)
		case err != nil:
			r.teardownFailed(ctx, "delete target", physicalID, err, "targetId", targetID)
		default:
			r.logger.Info("target deleted", "gatewayId", physicalID, "targetId", targetID)
		}

		if err := sleep(ctx, r.settings.Teardown.TargetDeletePause); err != nil {
			r.teardownFailed(ctx, "pause after target deletion", physicalID, err)
			return
		}
	}

	_, err = cb.Execute(func() (interface{}, error) {
		return r.api.DeleteGateway(ctx, &bac.DeleteGatewayInput{GatewayIdentifier: aws.String(physicalID)})
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		r.logger.Warn("skipping gateway deletion, too many failures", "gatewayId", physicalID)
	case IsNotFound(err):
		r.logger.Info("gateway already deleted", "gatewayId", physicalID)
	case err != nil:
		r.teardownFailed(ctx, "delete gateway", physicalID, err)
	default:
		r.logger.Info("gateway deleted", "gatewayId", physicalID)
	}
}

func (r *Reconciler) teardownFailed(ctx context.Context, step, gatewayID string, err error, args ...any) {
	metrics.TeardownFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
	attrs := append([]any{"step", step, "gatewayId", gatewayID, "error", err}, args...)
	r.logger.Warn("error deleting gateway", attrs...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
