package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/dwsmith1983/agentcore-gateway/internal/config"
	"github.com/dwsmith1983/agentcore-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitUntilReady_PollsUntilReady(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo", bactypes.GatewayStatusCreating, bactypes.GatewayStatusCreating, bactypes.GatewayStatusReady)

	err := newTestReconciler(api).WaitUntilReady(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, api.Calls(testutil.OpGetGateway))
}

func TestWaitUntilReady_ReadyOnFirstPoll(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo")

	require.NoError(t, newTestReconciler(api).WaitUntilReady(context.Background(), id))
	assert.Equal(t, 1, api.Calls(testutil.OpGetGateway))
}

func TestWaitUntilReady_FailedStatus(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo", bactypes.GatewayStatusCreating, bactypes.GatewayStatusFailed)

	err := newTestReconciler(api).WaitUntilReady(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: FAILED")
	assert.NotErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 2, api.Calls(testutil.OpGetGateway))
}

func TestWaitUntilReady_DeletingStatus(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo", bactypes.GatewayStatusDeleting)

	err := newTestReconciler(api).WaitUntilReady(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: DELETING")
	assert.Equal(t, 1, api.Calls(testutil.OpGetGateway))
}

func TestWaitUntilReady_Timeout(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo", bactypes.GatewayStatusCreating)

	r := newTestReconciler(api, func(s *config.Settings) {
		s.Readiness.PollInterval = 5 * time.Millisecond
		s.Readiness.MaxWait = 30 * time.Millisecond
	})
	err := r.WaitUntilReady(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Contains(t, err.Error(), "not ready after 30ms")
	assert.Greater(t, api.Calls(testutil.OpGetGateway), 1)
}

func TestWaitUntilReady_GetErrorIsImmediate(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo", bactypes.GatewayStatusCreating, bactypes.GatewayStatusReady)
	api.FailNext(testutil.OpGetGateway, errors.New("ThrottlingException: rate exceeded"))

	err := newTestReconciler(api).WaitUntilReady(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate exceeded")
	assert.Equal(t, 1, api.Calls(testutil.OpGetGateway))
}

func TestWaitUntilReady_ContextCanceled(t *testing.T) {
	api := testutil.NewFakeControlPlane()
	id := api.SeedGateway("demo", bactypes.GatewayStatusCreating)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestReconciler(api, func(s *config.Settings) { s.Readiness.PollInterval = time.Second })
	err := r.WaitUntilReady(ctx, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
