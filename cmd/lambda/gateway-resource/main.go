// gateway-resource Lambda backs the CloudFormation custom resource that
// manages an AgentCore MCP gateway and its tool target.
package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/dwsmith1983/agentcore-gateway/internal/cfnresponse"
	intlambda "github.com/dwsmith1983/agentcore-gateway/internal/lambda"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

const (
	flushTimeout       = 5 * time.Second
	initFailureTimeout = 10 * time.Second
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

// handleEvent reconciles one event. The outcome is reported to
// CloudFormation by the dispatcher, never through the return value.
func handleEvent(ctx context.Context, d *intlambda.Deps, event cfn.Event) types.Outcome {
	outcome := d.Dispatcher.Handle(ctx, event)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := d.Telemetry.Flush(flushCtx); err != nil {
		d.Logger.Warn("failed to flush telemetry", "error", err)
	}
	return outcome
}

// reportInitFailure answers CloudFormation when dependencies could not be
// built, so the stack does not wait for the response timeout. Deletes are
// reported as successful: teardown is best-effort and must not block stack
// deletion.
func reportInitFailure(ctx context.Context, sender *cfnresponse.Sender, event cfn.Event, initErr error) types.Outcome {
	slog.Error("initialization failed", "requestId", event.RequestID, "requestType", event.RequestType, "error", initErr)

	outcome := types.Failed(event.PhysicalResourceID, "initialization failed: "+initErr.Error())
	if event.RequestType == cfn.RequestDelete {
		physicalID := event.PhysicalResourceID
		if physicalID == "" {
			physicalID = types.NoPhysicalID
		}
		outcome = types.Succeeded(physicalID, nil)
	}

	if err := sender.Send(ctx, event.ResponseURL, cfnresponse.NewResponse(event, outcome)); err != nil {
		slog.Error("failed to send CloudFormation response", "requestId", event.RequestID, "error", err)
	}
	return outcome
}

func handler(ctx context.Context, event cfn.Event) error {
	d, err := getDeps()
	if err != nil {
		reportInitFailure(ctx, cfnresponse.New(nil, initFailureTimeout, slog.Default()), event, err)
		return nil
	}
	handleEvent(ctx, d, event)
	return nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
