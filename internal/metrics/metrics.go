// Package metrics exposes reconciler counters through the OpenTelemetry
// global meter. Instruments are no-ops until telemetry installs a provider.
package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const scope = "github.com/dwsmith1983/agentcore-gateway"

var meter = otel.Meter(scope)

var (
	Requests          = counter("gateway_resource.requests", "Custom resource requests handled, by type and status")
	ReadinessPolls    = counter("gateway_resource.readiness_polls", "GetGateway calls made while waiting for READY")
	TargetAttempts    = counter("gateway_resource.target_attempts", "Target create/update attempts")
	TargetRetries     = counter("gateway_resource.target_retries", "Target attempts retried after a transient parent state")
	TeardownFailures  = counter("gateway_resource.teardown_failures", "Swallowed failures during best-effort deletion")
	ParametersWritten = counter("gateway_resource.parameters_written", "SSM parameters written")
	CallbacksFailed   = counter("gateway_resource.callbacks_failed", "CloudFormation responses that could not be delivered")
	OutcomesPublished = counter("gateway_resource.outcomes_published", "Outcome notifications published to SNS")
)

func counter(name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		otel.Handle(err)
		c, _ = noop.NewMeterProvider().Meter(scope).Int64Counter(name)
	}
	return c
}
