package main

import (
	"os"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cfg := DefaultConfig()

	if name := os.Getenv("GATEWAY_NAME"); name != "" {
		cfg.GatewayName = name
	}
	if arn := os.Getenv("TOOL_LAMBDA_ARN"); arn != "" {
		cfg.ToolLambdaArn = arn
	}
	if path := os.Getenv("TOOL_SPEC_PATH"); path != "" {
		cfg.ToolSpecPath = path
	}
	if prefix := os.Getenv("GATEWAY_SSM_PREFIX"); prefix != "" {
		cfg.SsmPrefix = prefix
	}
	if ids := os.Getenv("COGNITO_CLIENT_IDS"); ids != "" {
		cfg.CognitoClientIDs = strings.Split(ids, ",")
	}
	cfg.CognitoDiscoveryURL = os.Getenv("COGNITO_DISCOVERY_URL")
	cfg.EnableOutcomeTopic = os.Getenv("GATEWAY_OUTCOME_TOPIC") == "true"

	stackName := "AgentCoreGatewayStack"
	if name := os.Getenv("GATEWAY_STACK_NAME"); name != "" {
		stackName = name
	}

	NewGatewayStack(app, stackName, cfg)
	app.Synth(nil)
}
