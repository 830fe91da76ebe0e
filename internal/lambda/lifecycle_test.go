package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/dwsmith1983/agentcore-gateway/internal/lifecycle"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ lifecycle.Notifier = (*OutcomePublisher)(nil)

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(_ context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testCfnEvent() cfn.Event {
	return cfn.Event{
		RequestType:       cfn.RequestCreate,
		StackID:           "arn:aws:cloudformation:us-east-1:123456789012:stack/demo/abc",
		LogicalResourceID: "McpGateway",
	}
}

func TestNotify_Success(t *testing.T) {
	client := &mockSNS{}
	p := NewOutcomePublisher(client, "arn:aws:sns:us-east-1:123456789012:outcomes", testLogger())
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	p.Notify(context.Background(), testCfnEvent(), types.Succeeded("gw-1", map[string]string{types.DataGatewayID: "gw-1"}))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:outcomes", aws.ToString(in.TopicArn))
	assert.Equal(t, EventGatewayReconciled, aws.ToString(in.MessageAttributes["eventType"].StringValue))

	var evt OutcomeEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &evt))
	assert.Equal(t, types.RequestCreate, evt.RequestType)
	assert.Equal(t, "gw-1", evt.PhysicalResourceID)
	assert.Equal(t, types.OutcomeSuccess, evt.Status)
	assert.Equal(t, "gw-1", evt.Data[types.DataGatewayID])
	assert.Equal(t, "McpGateway", evt.LogicalResourceID)
}

func TestNotify_Failed(t *testing.T) {
	client := &mockSNS{}
	outcome := types.Failed("", "boom")
	outcome.Category = types.FailureTimeout
	NewOutcomePublisher(client, "arn:topic", testLogger()).
		Notify(context.Background(), testCfnEvent(), outcome)

	require.Len(t, client.inputs, 1)
	assert.Equal(t, EventGatewayFailed, aws.ToString(client.inputs[0].MessageAttributes["eventType"].StringValue))
	assert.Contains(t, aws.ToString(client.inputs[0].Message), `"reason":"boom"`)
	assert.Contains(t, aws.ToString(client.inputs[0].Message), `"category":"TIMEOUT"`)
}

func TestNotify_PublishErrorIsSwallowed(t *testing.T) {
	client := &mockSNS{err: errors.New("throttled")}
	assert.NotPanics(t, func() {
		NewOutcomePublisher(client, "arn:topic", testLogger()).
			Notify(context.Background(), testCfnEvent(), types.Succeeded("gw-1", nil))
	})
	assert.Len(t, client.inputs, 1)
}

func TestNotify_Unconfigured(t *testing.T) {
	client := &mockSNS{}
	NewOutcomePublisher(client, "", testLogger()).Notify(context.Background(), testCfnEvent(), types.Succeeded("gw-1", nil))
	assert.Empty(t, client.inputs)

	var nilPub *OutcomePublisher
	assert.NotPanics(t, func() { nilPub.Notify(context.Background(), testCfnEvent(), types.Succeeded("gw-1", nil)) })
}
