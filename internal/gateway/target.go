package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// createOrUpdateTarget keeps exactly one target on the gateway: the first
// listed target is updated in place, or one is created when none exist.
// Update failures are not masked by a create; they go through the same
// transient-retry policy and otherwise fail.
func (r *Reconciler) createOrUpdateTarget(ctx context.Context, gatewayID, executorARN string, defs []bactypes.ToolDefinition) (string, error) {
	targets, err := r.listTargets(ctx, gatewayID)
	if err != nil {
		return "", fmt.Errorf("listing targets for gateway %s: %w", gatewayID, err)
	}

	if len(targets) == 0 {
		return r.createTargetWithRetry(ctx, gatewayID, executorARN, defs)
	}

	targetID := aws.ToString(targets[0].TargetId)
	if len(targets) > 1 {
		r.logger.Warn("gateway has more than one target, updating the first", "gatewayId", gatewayID, "targets", len(targets), "targetId", targetID)
	}

	_, err = r.withTransientRetry(ctx, "update target", func() (string, error) {
		_, err := r.api.UpdateGatewayTarget(ctx, &bac.UpdateGatewayTargetInput{
			GatewayIdentifier:                aws.String(gatewayID),
			TargetId:                         aws.String(targetID),
			Name:                             aws.String(r.settings.Target.Name),
			Description:                      aws.String(r.settings.Target.Description),
			TargetConfiguration:              targetConfiguration(executorARN, defs),
			CredentialProviderConfigurations: r.credentialProviders(),
		})
		if err != nil {
			return "", fmt.Errorf("UpdateGatewayTarget %s/%s: %w", gatewayID, targetID, err)
		}
		return targetID, nil
	})
	if err != nil {
		return "", err
	}

	r.logger.Info("target updated", "gatewayId", gatewayID, "targetId", targetID)
	return targetID, nil
}

// createTargetWithRetry creates the gateway's target, retrying while the
// gateway reports a transitional state.
func (r *Reconciler) createTargetWithRetry(ctx context.Context, gatewayID, executorARN string, defs []bactypes.ToolDefinition) (string, error) {
	targetID, err := r.withTransientRetry(ctx, "create target", func() (string, error) {
		out, err := r.api.CreateGatewayTarget(ctx, &bac.CreateGatewayTargetInput{
			GatewayIdentifier:                aws.String(gatewayID),
			Name:                             aws.String(r.settings.Target.Name),
			Description:                      aws.String(r.settings.Target.Description),
			TargetConfiguration:              targetConfiguration(executorARN, defs),
			CredentialProviderConfigurations: r.credentialProviders(),
			ClientToken:                      aws.String(r.newToken()),
		})
		if err != nil {
			return "", fmt.Errorf("CreateGatewayTarget %s: %w", gatewayID, err)
		}
		return aws.ToString(out.TargetId), nil
	})
	if err != nil {
		return "", err
	}

	r.logger.Info("target created", "gatewayId", gatewayID, "targetId", targetID)
	return targetID, nil
}

// withTransientRetry runs fn up to retry.maxAttempts times. Transient errors
// are retried after retry.baseDelay * 2^attempt; any other error is returned
// at once.
func (r *Reconciler) withTransientRetry(ctx context.Context, op string, fn func() (string, error)) (string, error) {
	maxAttempts := r.settings.Retry.MaxAttempts
	attempts := 0
	opAttr := metric.WithAttributes(attribute.String("op", op))

	id, err := backoff.Retry(ctx, func() (string, error) {
		attempts++
		metrics.TargetAttempts.Add(ctx, 1, opAttr)
		id, err := fn()
		if err != nil && !IsTransient(err) {
			return "", backoff.Permanent(err)
		}
		return id, err
	},
		backoff.WithBackOff(r.targetBackOff()),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.TargetRetries.Add(ctx, 1, opAttr)
			r.logger.Info("gateway not ready, retrying", "op", op, "attempt", attempts, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		if IsTransient(err) && attempts >= maxAttempts {
			return "", fmt.Errorf("failed to %s after %d attempts: %w", op, attempts, err)
		}
		return "", err
	}
	return id, nil
}

func (r *Reconciler) targetBackOff() *backoff.ExponentialBackOff {
	maxDelay := r.settings.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = backoff.DefaultMaxInterval
	}
	return &backoff.ExponentialBackOff{
		InitialInterval:     r.settings.Retry.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxDelay,
	}
}

func (r *Reconciler) listTargets(ctx context.Context, gatewayID string) ([]bactypes.TargetSummary, error) {
	var (
		all  []bactypes.TargetSummary
		next *string
	)
	for {
		out, err := r.api.ListGatewayTargets(ctx, &bac.ListGatewayTargetsInput{
			GatewayIdentifier: aws.String(gatewayID),
			NextToken:         next,
		})
		if err != nil {
			return nil, fmt.Errorf("ListGatewayTargets %s: %w", gatewayID, err)
		}
		all = append(all, out.Items...)
		if aws.ToString(out.NextToken) == "" {
			return all, nil
		}
		next = out.NextToken
	}
}

func targetConfiguration(executorARN string, defs []bactypes.ToolDefinition) bactypes.TargetConfiguration {
	return &bactypes.TargetConfigurationMemberMcp{
		Value: &bactypes.McpTargetConfigurationMemberLambda{
			Value: bactypes.McpLambdaTargetConfiguration{
				LambdaArn:  aws.String(executorARN),
				ToolSchema: &bactypes.ToolSchemaMemberInlinePayload{Value: defs},
			},
		},
	}
}

func (r *Reconciler) credentialProviders() []bactypes.CredentialProviderConfiguration {
	return []bactypes.CredentialProviderConfiguration{{
		CredentialProviderType: bactypes.CredentialProviderType(r.settings.Target.CredentialProviderType),
	}}
}
