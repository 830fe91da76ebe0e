// Package gateway reconciles an AgentCore gateway and its single target
// against a desired GatewayRequest.
package gateway

import (
	"context"

	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
)

// ControlPlaneAPI is the subset of the AgentCore control-plane client used by
// the reconciler.
type ControlPlaneAPI interface {
	ListGateways(ctx context.Context, params *bac.ListGatewaysInput, optFns ...func(*bac.Options)) (*bac.ListGatewaysOutput, error)
	GetGateway(ctx context.Context, params *bac.GetGatewayInput, optFns ...func(*bac.Options)) (*bac.GetGatewayOutput, error)
	CreateGateway(ctx context.Context, params *bac.CreateGatewayInput, optFns ...func(*bac.Options)) (*bac.CreateGatewayOutput, error)
	DeleteGateway(ctx context.Context, params *bac.DeleteGatewayInput, optFns ...func(*bac.Options)) (*bac.DeleteGatewayOutput, error)
	ListGatewayTargets(ctx context.Context, params *bac.ListGatewayTargetsInput, optFns ...func(*bac.Options)) (*bac.ListGatewayTargetsOutput, error)
	CreateGatewayTarget(ctx context.Context, params *bac.CreateGatewayTargetInput, optFns ...func(*bac.Options)) (*bac.CreateGatewayTargetOutput, error)
	UpdateGatewayTarget(ctx context.Context, params *bac.UpdateGatewayTargetInput, optFns ...func(*bac.Options)) (*bac.UpdateGatewayTargetOutput, error)
	DeleteGatewayTarget(ctx context.Context, params *bac.DeleteGatewayTargetInput, optFns ...func(*bac.Options)) (*bac.DeleteGatewayTargetOutput, error)
}

var _ ControlPlaneAPI = (*bac.Client)(nil)
