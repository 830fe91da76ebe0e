// Package lambda provides shared types and initialization for the gateway
// custom resource Lambda handler.
package lambda

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

// SNSAPI is the subset of the SNS client used for publishing outcome events.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// OutcomeEvent is published to SNS when a custom resource request finishes.
type OutcomeEvent struct {
	EventType          string                `json:"eventType"`
	RequestType        types.RequestKind     `json:"requestType"`
	StackID            string                `json:"stackId"`
	LogicalResourceID  string                `json:"logicalResourceId"`
	PhysicalResourceID string                `json:"physicalResourceId"`
	Status             types.OutcomeStatus   `json:"status"`
	Reason             string                `json:"reason,omitempty"`
	Category           types.FailureCategory `json:"category,omitempty"`
	Data               map[string]string     `json:"data,omitempty"`
	Timestamp          time.Time             `json:"timestamp"`
}

// Event types carried by OutcomeEvent.
const (
	EventGatewayReconciled = "GATEWAY_RECONCILED"
	EventGatewayFailed     = "GATEWAY_RECONCILE_FAILED"
)
