package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/dwsmith1983/agentcore-gateway/internal/cfnresponse"
	"github.com/dwsmith1983/agentcore-gateway/internal/config"
	"github.com/dwsmith1983/agentcore-gateway/internal/gateway"
	"github.com/dwsmith1983/agentcore-gateway/internal/paramstore"
	"github.com/dwsmith1983/agentcore-gateway/internal/testutil"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Reconciler = (*gateway.Reconciler)(nil)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newMockDispatcher(rec Reconciler) (*Dispatcher, *mockParams, *mockSender) {
	params := &mockParams{}
	sender := &mockSender{}
	return NewDispatcher(rec, NewReporter(params, sender, WithReporterLogger(discard())), "us-east-1", discard()), params, sender
}

func TestHandle_CreateSuccess(t *testing.T) {
	rec := &mockReconciler{createRes: demoResult}
	d, params, sender := newMockDispatcher(rec)

	evt := testEvent(cfn.RequestCreate)
	evt.ResourceProperties = validProps()
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeSuccess, out.Status)
	assert.Equal(t, "gw-1", out.PhysicalID)
	assert.Equal(t, demoResult.Data(), out.Data)
	require.Len(t, rec.creates, 1)
	assert.Equal(t, "demo", rec.creates[0].Name)
	assert.Equal(t, "/mcp/demo", params.prefix)
	assert.Len(t, sender.sent, 1)
}

func TestHandle_CreateFailure(t *testing.T) {
	rec := &mockReconciler{createErr: errors.New("gateway demo-1 in unexpected status: FAILED")}
	d, params, sender := newMockDispatcher(rec)

	evt := testEvent(cfn.RequestCreate)
	evt.ResourceProperties = validProps()
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Equal(t, types.NoPhysicalID, out.PhysicalID)
	assert.Contains(t, out.Reason, "unexpected status: FAILED")
	assert.Empty(t, params.results)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, cfn.StatusFailed, sender.sent[0].Status)
}

func TestHandle_FailureCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.FailureCategory
	}{
		{"readiness timeout", fmt.Errorf("gateway demo-1 not ready after 2m0s: %w", gateway.ErrNotReady), types.FailureTimeout},
		{"validation error", &bactypes.ValidationException{Message: aws.String("roleArn is malformed")}, types.FailurePermanent},
		{"parent still creating", fmt.Errorf("failed to create target after 5 attempts: %w", errors.New("gateway is in CREATING state")), types.FailureTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			rec := &mockReconciler{createErr: tt.err}
			reporter := NewReporter(&mockParams{}, &mockSender{}, WithReporterLogger(discard()))
			d := NewDispatcher(rec, reporter, "us-east-1", slog.New(slog.NewJSONHandler(&logs, nil)))

			evt := testEvent(cfn.RequestCreate)
			evt.ResourceProperties = validProps()
			out := d.Handle(context.Background(), evt)

			assert.Equal(t, types.OutcomeFailed, out.Status)
			assert.Equal(t, tt.want, out.Category)
			assert.Contains(t, logs.String(), `"category":"`+string(tt.want)+`"`)
		})
	}
}

func TestHandle_MissingPropertyIsPermanent(t *testing.T) {
	d, _, _ := newMockDispatcher(&mockReconciler{})

	out := d.Handle(context.Background(), testEvent(cfn.RequestCreate))
	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Equal(t, types.FailurePermanent, out.Category)
}

func TestHandle_SuccessHasNoCategory(t *testing.T) {
	d, _, _ := newMockDispatcher(&mockReconciler{createRes: demoResult})

	evt := testEvent(cfn.RequestCreate)
	evt.ResourceProperties = validProps()
	out := d.Handle(context.Background(), evt)
	assert.Equal(t, types.OutcomeSuccess, out.Status)
	assert.Empty(t, out.Category)
}

func TestHandle_MissingPropertyFailsWithoutCalls(t *testing.T) {
	rec := &mockReconciler{}
	d, _, sender := newMockDispatcher(rec)

	evt := testEvent(cfn.RequestCreate)
	evt.ResourceProperties = validProps()
	delete(evt.ResourceProperties, PropLambdaArn)
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Contains(t, out.Reason, "LambdaArn")
	assert.Empty(t, rec.creates)
	assert.Len(t, sender.sent, 1)
}

func TestHandle_UnknownRequestType(t *testing.T) {
	rec := &mockReconciler{}
	d, _, sender := newMockDispatcher(rec)

	evt := testEvent("Replace")
	evt.PhysicalResourceID = "gw-1"
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Equal(t, "unknown request type: Replace", out.Reason)
	assert.Equal(t, "gw-1", out.PhysicalID)
	assert.Len(t, sender.sent, 1)
}

func TestHandle_UpdatePassesPriorName(t *testing.T) {
	rec := &mockReconciler{updateRes: demoResult}
	d, _, _ := newMockDispatcher(rec)

	evt := testEvent(cfn.RequestUpdate)
	evt.PhysicalResourceID = "gw-1"
	evt.ResourceProperties = validProps()
	evt.OldResourceProperties = map[string]interface{}{PropGatewayName: "old-demo"}
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeSuccess, out.Status)
	assert.Equal(t, []string{"gw-1|old-demo"}, rec.updates)
}

func TestHandle_UpdateFailureKeepsPhysicalID(t *testing.T) {
	rec := &mockReconciler{updateErr: errors.New("AccessDeniedException")}
	d, _, _ := newMockDispatcher(rec)

	evt := testEvent(cfn.RequestUpdate)
	evt.PhysicalResourceID = "gw-1"
	evt.ResourceProperties = validProps()
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Equal(t, "gw-1", out.PhysicalID)
}

func TestHandle_DeleteAlwaysSucceeds(t *testing.T) {
	for _, physicalID := range []string{"gw-1", "", types.NoPhysicalID} {
		rec := &mockReconciler{}
		d, params, sender := newMockDispatcher(rec)

		evt := testEvent(cfn.RequestDelete)
		evt.PhysicalResourceID = physicalID
		out := d.Handle(context.Background(), evt)

		assert.Equal(t, types.OutcomeSuccess, out.Status, "physicalID=%q", physicalID)
		assert.Equal(t, []string{physicalID}, rec.deletes)
		assert.Empty(t, params.results)
		require.Len(t, sender.sent, 1)
	}
}

func TestHandle_PanicBecomesFailed(t *testing.T) {
	rec := &mockReconciler{panicMsg: "nil map"}
	d, _, sender := newMockDispatcher(rec)

	evt := testEvent(cfn.RequestCreate)
	evt.ResourceProperties = validProps()

	var out types.Outcome
	require.NotPanics(t, func() { out = d.Handle(context.Background(), evt) })
	assert.Equal(t, types.OutcomeFailed, out.Status)
	assert.Contains(t, out.Reason, "internal error: nil map")
	assert.Len(t, sender.sent, 1)
}

func TestRedacted(t *testing.T) {
	evt := testEvent(cfn.RequestCreate)
	r := redacted(evt)
	assert.Equal(t, "[redacted]", r.ResponseURL)
	assert.NotEqual(t, "[redacted]", evt.ResponseURL)
}

// The scenarios below run the real reconciler, parameter store and response
// sender against in-memory fakes.

type callbackReceiver struct {
	srv    *httptest.Server
	bodies chan map[string]any
}

func newCallbackReceiver(t *testing.T) *callbackReceiver {
	t.Helper()
	c := &callbackReceiver{bodies: make(chan map[string]any, 4)}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.bodies <- body
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func newStack(t *testing.T, api *testutil.FakeControlPlane, ssm *testutil.FakeParameterStore, cb *callbackReceiver) *Dispatcher {
	t.Helper()
	s := config.Default()
	s.Readiness.PollInterval = time.Millisecond
	s.Retry.BaseDelay = time.Millisecond
	s.Teardown.TargetDeletePause = 0

	rec := gateway.New(api, s, gateway.WithLogger(discard()))
	reporter := NewReporter(
		paramstore.New(ssm, discard()),
		cfnresponse.New(cb.srv.Client(), time.Second, discard()),
		WithReporterLogger(discard()),
	)
	return NewDispatcher(rec, reporter, "us-east-1", discard())
}

func TestScenario_CreateDemo(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	api.CreatedStatuses = []bactypes.GatewayStatus{bactypes.GatewayStatusCreating, bactypes.GatewayStatusReady}
	ssm := testutil.NewFakeParameterStore()
	cb := newCallbackReceiver(t)
	d := newStack(t, api, ssm, cb)

	evt := testEvent(cfn.RequestCreate)
	evt.ResponseURL = cb.srv.URL
	evt.ResourceProperties = validProps()
	out := d.Handle(context.Background(), evt)
	require.Equal(t, types.OutcomeSuccess, out.Status, out.Reason)

	assert.Equal(t, 1, api.Calls(testutil.OpCreateGateway))
	assert.Equal(t, 1, api.Calls(testutil.OpCreateGatewayTarget))
	assert.Len(t, ssm.Inputs(), 3)

	gatewayID := api.GatewayIDs()[0]
	stored, _ := ssm.Value("/mcp/demo/gateway_id")
	assert.Equal(t, gatewayID, stored)

	body := <-cb.bodies
	assert.Equal(t, "SUCCESS", body["Status"])
	assert.Equal(t, gatewayID, body["PhysicalResourceId"])
	data, ok := body["Data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, gatewayID, data[types.DataGatewayID])
	assert.Len(t, cb.bodies, 0, "exactly one callback")
}

func TestScenario_UpdateSameName(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	gatewayID := api.SeedGateway("demo")
	targetID := api.SeedTarget(gatewayID, "ToolTarget")
	ssm := testutil.NewFakeParameterStore()
	cb := newCallbackReceiver(t)
	d := newStack(t, api, ssm, cb)

	evt := testEvent(cfn.RequestUpdate)
	evt.ResponseURL = cb.srv.URL
	evt.PhysicalResourceID = gatewayID
	evt.ResourceProperties = validProps()
	evt.OldResourceProperties = validProps()
	out := d.Handle(context.Background(), evt)
	require.Equal(t, types.OutcomeSuccess, out.Status, out.Reason)

	assert.Equal(t, gatewayID, out.PhysicalID)
	assert.Equal(t, targetID, out.Data[types.DataTargetID])
	assert.Equal(t, 0, api.Calls(testutil.OpCreateGateway))
	assert.Equal(t, 1, api.Calls(testutil.OpUpdateGatewayTarget))
	assert.Equal(t, gatewayID, (<-cb.bodies)["PhysicalResourceId"])
}

func TestScenario_DeleteAlreadyGone(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	cb := newCallbackReceiver(t)
	d := newStack(t, api, testutil.NewFakeParameterStore(), cb)

	evt := testEvent(cfn.RequestDelete)
	evt.ResponseURL = cb.srv.URL
	evt.PhysicalResourceID = "demo-0042"
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeSuccess, out.Status)
	assert.Equal(t, "SUCCESS", (<-cb.bodies)["Status"])
}

func TestScenario_DeleteNetworkError(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo")
	api.FailAlways(testutil.OpListGatewayTargets, errors.New("dial tcp: connection refused"))
	api.FailAlways(testutil.OpDeleteGateway, errors.New("dial tcp: connection refused"))
	cb := newCallbackReceiver(t)
	d := newStack(t, api, testutil.NewFakeParameterStore(), cb)

	evt := testEvent(cfn.RequestDelete)
	evt.ResponseURL = cb.srv.URL
	evt.PhysicalResourceID = id
	out := d.Handle(context.Background(), evt)

	assert.Equal(t, types.OutcomeSuccess, out.Status)
	assert.Equal(t, "SUCCESS", (<-cb.bodies)["Status"])
}
