package lambda

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OutcomePublisher publishes every final outcome to an SNS topic.
type OutcomePublisher struct {
	client   SNSAPI
	topicARN string
	logger   *slog.Logger
	now      func() time.Time
}

// NewOutcomePublisher creates a publisher for topicARN.
func NewOutcomePublisher(client SNSAPI, topicARN string, logger *slog.Logger) *OutcomePublisher {
	return &OutcomePublisher{client: client, topicARN: topicARN, logger: logger, now: time.Now}
}

// Notify publishes the outcome. Best-effort: errors are logged, not returned.
// No-op when the client or topic is not configured.
func (p *OutcomePublisher) Notify(ctx context.Context, event cfn.Event, outcome types.Outcome) {
	if p == nil || p.client == nil || p.topicARN == "" {
		return
	}

	eventType := EventGatewayReconciled
	if outcome.Status == types.OutcomeFailed {
		eventType = EventGatewayFailed
	}

	evt := OutcomeEvent{
		EventType:          eventType,
		RequestType:        types.RequestKind(event.RequestType),
		StackID:            event.StackID,
		LogicalResourceID:  event.LogicalResourceID,
		PhysicalResourceID: outcome.PhysicalID,
		Status:             outcome.Status,
		Reason:             outcome.Reason,
		Category:           outcome.Category,
		Data:               outcome.Data,
		Timestamp:          p.now().UTC(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("failed to marshal outcome event",
			"logicalResourceId", event.LogicalResourceID, "error", err)
		return
	}

	_, err = p.client.Publish(ctx, &awssns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	})
	if err != nil {
		p.logger.Error("failed to publish outcome event",
			"logicalResourceId", event.LogicalResourceID, "status", outcome.Status, "error", err)
		return
	}

	metrics.OutcomesPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(outcome.Status))))
	p.logger.Info("published outcome event",
		"logicalResourceId", event.LogicalResourceID, "status", outcome.Status, "eventType", eventType)
}
