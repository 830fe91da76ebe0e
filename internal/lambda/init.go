package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dwsmith1983/agentcore-gateway/internal/cfnresponse"
	"github.com/dwsmith1983/agentcore-gateway/internal/config"
	"github.com/dwsmith1983/agentcore-gateway/internal/gateway"
	"github.com/dwsmith1983/agentcore-gateway/internal/lifecycle"
	"github.com/dwsmith1983/agentcore-gateway/internal/paramstore"
	"github.com/dwsmith1983/agentcore-gateway/internal/telemetry"
)

// Deps holds shared dependencies for the Lambda handler.
type Deps struct {
	Dispatcher *lifecycle.Dispatcher
	Telemetry  *telemetry.Providers
	Logger     *slog.Logger
}

const telemetryShutdownTimeout = 2 * time.Second

var loadAWSConfig = awsconfig.LoadDefaultConfig

// Init creates shared dependencies from environment variables.
// Reads: AWS_REGION, LOG_LEVEL, GATEWAY_CONFIG_FILE, OUTCOME_TOPIC_ARN,
// OTEL_SERVICE_NAME (plus the config overrides read by config.Load).
func Init(ctx context.Context) (*Deps, error) {
	logger := NewLogger(envOrDefault("LOG_LEVEL", "info"))

	region := os.Getenv("AWS_REGION")
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION environment variable required")
	}

	settings, err := config.Load(os.Getenv("GATEWAY_CONFIG_FILE"))
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	tel, err := telemetry.Init(ctx, envOrDefault("OTEL_SERVICE_NAME", "gateway-resource"))
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	awsCfg, err := loadAWSConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		if serr := tel.Shutdown(sctx); serr != nil {
			logger.Warn("failed to shut down telemetry", "error", serr)
		}
		cancel()
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	rec := gateway.New(bac.NewFromConfig(awsCfg), settings, gateway.WithLogger(logger))
	sender := cfnresponse.New(&http.Client{}, settings.Callback.Timeout, logger)

	var opts []lifecycle.ReporterOption
	opts = append(opts, lifecycle.WithReporterLogger(logger))
	if topicARN := os.Getenv("OUTCOME_TOPIC_ARN"); topicARN != "" {
		opts = append(opts, lifecycle.WithNotifier(NewOutcomePublisher(sns.NewFromConfig(awsCfg), topicARN, logger)))
	}
	reporter := lifecycle.NewReporter(paramstore.New(ssm.NewFromConfig(awsCfg), logger), sender, opts...)

	return &Deps{
		Dispatcher: lifecycle.NewDispatcher(rec, reporter, region, logger),
		Telemetry:  tel,
		Logger:     logger,
	}, nil
}

// NewLogger returns the JSON stderr logger at the named level. Unknown
// levels fall back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
