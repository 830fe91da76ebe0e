package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/dwsmith1983/agentcore-gateway/internal/config"
	"github.com/dwsmith1983/agentcore-gateway/internal/toolspec"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dwsmith1983/agentcore-gateway/internal/gateway")

// Reconciler drives a gateway and its target toward a GatewayRequest. It
// holds no resource state: every operation re-reads the control plane.
type Reconciler struct {
	api      ControlPlaneAPI
	settings config.Settings
	logger   *slog.Logger
	newToken func() string
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithTokenSource sets the generator for idempotency client tokens.
func WithTokenSource(fn func() string) Option {
	return func(r *Reconciler) { r.newToken = fn }
}

// New creates a Reconciler over the given control-plane client.
func New(api ControlPlaneAPI, settings config.Settings, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:      api,
		settings: settings,
		logger:   slog.Default(),
		newToken: clientToken,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// clientToken returns an idempotency token. AgentCore requires at least 33
// characters, a bare ULID has 26.
func clientToken() string {
	return "reconcile-" + ulid.Make().String()
}

type lookupResult int

const (
	lookupNotFound lookupResult = iota
	lookupFound
	lookupFailed
)

// Create ensures a gateway named req.Name exists with the requested target.
// An existing gateway with that name is reused without waiting for
// readiness; otherwise a new one is created and awaited.
func (r *Reconciler) Create(ctx context.Context, req types.GatewayRequest) (result types.GatewayResult, err error) {
	ctx, span := tracer.Start(ctx, "gateway.Create", trace.WithAttributes(attribute.String("gateway.name", req.Name)))
	defer func() { endSpan(span, err) }()

	defs, err := toolspec.Definitions(req.ToolSpec)
	if err != nil {
		return types.GatewayResult{}, fmt.Errorf("parsing tool schema: %w", err)
	}
	return r.create(ctx, req, defs)
}

func (r *Reconciler) create(ctx context.Context, req types.GatewayRequest, defs []bactypes.ToolDefinition) (types.GatewayResult, error) {
	existing, found, err := r.findGateway(ctx, req.Name)
	switch found {
	case lookupFailed:
		return types.GatewayResult{}, fmt.Errorf("checking for existing gateway %q: %w", req.Name, err)
	case lookupFound:
		gatewayID := aws.ToString(existing.GatewayId)
		r.logger.Info("gateway already exists", "gatewayId", gatewayID, "name", req.Name, "status", existing.Status)
		targetID, err := r.createOrUpdateTarget(ctx, gatewayID, req.ExecutorARN, defs)
		if err != nil {
			return types.GatewayResult{}, err
		}
		return r.describe(ctx, gatewayID, req.Region, targetID)
	}

	gatewayID, err := r.createGateway(ctx, req)
	if err != nil {
		return types.GatewayResult{}, err
	}
	r.logger.Info("gateway created", "gatewayId", gatewayID, "name", req.Name)

	if err := r.WaitUntilReady(ctx, gatewayID); err != nil {
		return types.GatewayResult{}, err
	}

	targetID, err := r.createTargetWithRetry(ctx, gatewayID, req.ExecutorARN, defs)
	if err != nil {
		return types.GatewayResult{}, err
	}
	return r.describe(ctx, gatewayID, req.Region, targetID)
}

// Update reconciles physicalID toward req. A changed gateway name replaces
// the gateway: the old one is deleted and a new one created, so the returned
// GatewayID differs from physicalID.
func (r *Reconciler) Update(ctx context.Context, physicalID, priorName string, req types.GatewayRequest) (result types.GatewayResult, err error) {
	ctx, span := tracer.Start(ctx, "gateway.Update", trace.WithAttributes(
		attribute.String("gateway.id", physicalID),
		attribute.String("gateway.name", req.Name),
	))
	defer func() { endSpan(span, err) }()

	defs, err := toolspec.Definitions(req.ToolSpec)
	if err != nil {
		return types.GatewayResult{}, fmt.Errorf("parsing tool schema: %w", err)
	}

	if priorName != req.Name {
		r.logger.Info("gateway name changed, replacing", "gatewayId", physicalID, "from", priorName, "to", req.Name)
		r.Delete(ctx, physicalID)
		return r.create(ctx, req, defs)
	}

	targetID, err := r.createOrUpdateTarget(ctx, physicalID, req.ExecutorARN, defs)
	if err != nil {
		return types.GatewayResult{}, err
	}
	return r.describe(ctx, physicalID, req.Region, targetID)
}

func (r *Reconciler) findGateway(ctx context.Context, name string) (bactypes.GatewaySummary, lookupResult, error) {
	var next *string
	for {
		out, err := r.api.ListGateways(ctx, &bac.ListGatewaysInput{NextToken: next})
		if err != nil {
			return bactypes.GatewaySummary{}, lookupFailed, fmt.Errorf("ListGateways: %w", err)
		}
		for _, gw := range out.Items {
			if aws.ToString(gw.Name) == name {
				return gw, lookupFound, nil
			}
		}
		if aws.ToString(out.NextToken) == "" {
			return bactypes.GatewaySummary{}, lookupNotFound, nil
		}
		next = out.NextToken
	}
}

func (r *Reconciler) createGateway(ctx context.Context, req types.GatewayRequest) (string, error) {
	out, err := r.api.CreateGateway(ctx, &bac.CreateGatewayInput{
		Name:           aws.String(req.Name),
		Description:    aws.String(r.settings.Gateway.Description),
		RoleArn:        aws.String(req.RoleARN),
		ProtocolType:   bactypes.GatewayProtocolType(r.settings.Gateway.ProtocolType),
		AuthorizerType: bactypes.AuthorizerType(r.settings.Gateway.AuthorizerType),
		AuthorizerConfiguration: &bactypes.AuthorizerConfigurationMemberCustomJWTAuthorizer{
			Value: bactypes.CustomJWTAuthorizerConfiguration{
				AllowedClients: req.Auth.AllowedClientIDs,
				DiscoveryUrl:   aws.String(req.Auth.DiscoveryURL),
			},
		},
		ClientToken: aws.String(r.newToken()),
	})
	if err != nil {
		return "", fmt.Errorf("CreateGateway %q: %w", req.Name, err)
	}
	gatewayID := aws.ToString(out.GatewayId)
	if gatewayID == "" {
		return "", fmt.Errorf("CreateGateway %q: response has no gateway id", req.Name)
	}
	return gatewayID, nil
}

// describe re-reads the gateway and assembles the result.
func (r *Reconciler) describe(ctx context.Context, gatewayID, region, targetID string) (types.GatewayResult, error) {
	out, err := r.api.GetGateway(ctx, &bac.GetGatewayInput{GatewayIdentifier: aws.String(gatewayID)})
	if err != nil {
		return types.GatewayResult{}, fmt.Errorf("GetGateway %s: %w", gatewayID, err)
	}
	if id := aws.ToString(out.GatewayId); id != "" {
		gatewayID = id
	}

	reported := aws.ToString(out.GatewayUrl)
	if reported == "" {
		r.logger.Warn("gateway URL not in response, deriving from gateway id", "gatewayId", gatewayID, "region", region)
	}
	url := ResolveURL(r.settings.Gateway.URLTemplate, reported, gatewayID, region)
	r.logger.Info("gateway reconciled", "gatewayId", gatewayID, "gatewayUrl", url, "targetId", targetID)

	return types.GatewayResult{
		GatewayID:  gatewayID,
		GatewayURL: url,
		TargetID:   targetID,
	}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
