// Package paramstore publishes reconciled gateway identifiers to SSM
// Parameter Store so other stacks and services can discover them.
package paramstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/dwsmith1983/agentcore-gateway/internal/metrics"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Parameter names written under the request's prefix.
const (
	ParamGatewayURL = "gateway_url"
	ParamTargetID   = "target_id"
	ParamGatewayID  = "gateway_id"
)

// SSMAPI is the subset of the SSM client used by Store.
type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// Store writes gateway parameters.
type Store struct {
	client SSMAPI
	logger *slog.Logger
}

// New creates a Store. A nil logger uses slog.Default().
func New(client SSMAPI, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

// Name joins prefix and param into a parameter path.
func Name(prefix, param string) string {
	return strings.TrimRight(prefix, "/") + "/" + param
}

// PutGatewayParameters writes {prefix}/gateway_url, {prefix}/target_id and
// {prefix}/gateway_id, overwriting existing values. It stops at the first
// failed write.
func (s *Store) PutGatewayParameters(ctx context.Context, prefix string, res types.GatewayResult) error {
	if prefix == "" {
		return fmt.Errorf("parameter prefix is required")
	}

	params := []struct{ name, value string }{
		{ParamGatewayURL, res.GatewayURL},
		{ParamTargetID, res.TargetID},
		{ParamGatewayID, res.GatewayID},
	}
	for _, p := range params {
		name := Name(prefix, p.name)
		_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
			Name:      aws.String(name),
			Value:     aws.String(p.value),
			Type:      ssmtypes.ParameterTypeString,
			Overwrite: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("PutParameter %s: %w", name, err)
		}
		metrics.ParametersWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("param", p.name)))
	}

	s.logger.Info("gateway parameters stored", "prefix", prefix, "gatewayId", res.GatewayID)
	return nil
}
