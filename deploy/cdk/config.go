package main

// StackConfig holds configuration for the gateway CDK stack.
type StackConfig struct {
	Prefix           string
	GatewayName      string
	ToolLambdaArn    string
	ToolSpecPath     string
	SsmPrefix        string
	MemorySize       float64
	Timeout          float64
	LambdaDistDir    string
	LogRetentionDays float64
	LogLevel         string

	// Cognito authorizer
	CognitoClientIDs    []string
	CognitoDiscoveryURL string

	// Publish reconcile outcomes to an SNS topic
	EnableOutcomeTopic bool
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		Prefix:           "agentcore-gateway",
		GatewayName:      "mcp-gateway",
		ToolSpecPath:     "../tools.json",
		SsmPrefix:        "/agentcore-gateway/mcp",
		MemorySize:       256,
		Timeout:          900,
		LambdaDistDir:    "../dist/lambda",
		LogRetentionDays: 7,
		LogLevel:         "info",
	}
}
