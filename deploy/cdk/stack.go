package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// controlPlaneActions are the AgentCore calls the reconciler makes.
var controlPlaneActions = []string{
	"bedrock-agentcore:CreateGateway",
	"bedrock-agentcore:GetGateway",
	"bedrock-agentcore:ListGateways",
	"bedrock-agentcore:DeleteGateway",
	"bedrock-agentcore:CreateGatewayTarget",
	"bedrock-agentcore:UpdateGatewayTarget",
	"bedrock-agentcore:ListGatewayTargets",
	"bedrock-agentcore:DeleteGatewayTarget",
}

func NewGatewayStack(scope constructs.Construct, id string, cfg StackConfig) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, nil)

	// 1. Gateway service role: assumed by AgentCore to invoke the tool Lambda
	gatewayRole := awsiam.NewRole(stack, jsii.String("GatewayRole"), &awsiam.RoleProps{
		AssumedBy:   awsiam.NewServicePrincipal(jsii.String("bedrock-agentcore.amazonaws.com"), nil),
		Description: jsii.String("Role assumed by the AgentCore gateway to call its tool target"),
	})
	gatewayRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   &[]*string{jsii.String("lambda:InvokeFunction")},
		Resources: &[]*string{jsii.String(cfg.ToolLambdaArn)},
	}))

	// 2. Optional outcome topic
	env := &map[string]*string{
		"LOG_LEVEL": jsii.String(cfg.LogLevel),
	}
	var topic awssns.Topic
	if cfg.EnableOutcomeTopic {
		topic = awssns.NewTopic(stack, jsii.String("OutcomeTopic"), &awssns.TopicProps{
			TopicName: jsii.String(cfg.Prefix + "-outcomes"),
		})
		(*env)["OUTCOME_TOPIC_ARN"] = topic.TopicArn()
	}

	// 3. Custom resource handler
	fn := awslambda.NewFunction(stack, jsii.String("gateway-resource"), &awslambda.FunctionProps{
		FunctionName: jsii.String(cfg.Prefix + "-gateway-resource"),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String(filepath.Join(cfg.LambdaDistDir, "gateway-resource")), nil),
		Architecture: awslambda.Architecture_ARM_64(),
		MemorySize:   jsii.Number(cfg.MemorySize),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(cfg.Timeout)),
		Environment:  env,
		LogRetention: logRetentionDays(cfg.LogRetentionDays),
	})

	// 4. IAM Grants
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings(controlPlaneActions...),
		Resources: &[]*string{jsii.String("*")},
	}))
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   &[]*string{jsii.String("iam:PassRole")},
		Resources: &[]*string{gatewayRole.RoleArn()},
	}))
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: &[]*string{jsii.String("ssm:PutParameter")},
		Resources: &[]*string{
			stack.FormatArn(&awscdk.ArnComponents{
				Service:      jsii.String("ssm"),
				Resource:     jsii.String("parameter"),
				ResourceName: jsii.String(strings.TrimPrefix(strings.TrimRight(cfg.SsmPrefix, "/"), "/") + "/*"),
			}),
		},
	}))
	if topic != nil {
		topic.GrantPublish(fn)
	}

	// 5. The gateway itself
	gateway := awscdk.NewCustomResource(stack, jsii.String("McpGateway"), &awscdk.CustomResourceProps{
		ServiceToken: fn.FunctionArn(),
		ResourceType: jsii.String("Custom::AgentCoreGateway"),
		Properties: &map[string]interface{}{
			"GatewayName":         jsii.String(cfg.GatewayName),
			"LambdaArn":           jsii.String(cfg.ToolLambdaArn),
			"ApiSpec":             jsii.String(loadToolSpec(cfg.ToolSpecPath)),
			"GatewayRoleArn":      gatewayRole.RoleArn(),
			"CognitoClientId":     jsii.String(strings.Join(cfg.CognitoClientIDs, ",")),
			"CognitoDiscoveryUrl": jsii.String(cfg.CognitoDiscoveryURL),
			"Region":              stack.Region(),
			"SsmPrefix":           jsii.String(cfg.SsmPrefix),
		},
	})
	gateway.Node().AddDependency(gatewayRole)

	// 6. Stack Outputs
	awscdk.NewCfnOutput(stack, jsii.String("GatewayId"), &awscdk.CfnOutputProps{
		Value: gateway.GetAttString(jsii.String("GatewayId")),
	})
	awscdk.NewCfnOutput(stack, jsii.String("GatewayUrl"), &awscdk.CfnOutputProps{
		Value: gateway.GetAttString(jsii.String("GatewayUrl")),
	})
	awscdk.NewCfnOutput(stack, jsii.String("TargetId"), &awscdk.CfnOutputProps{
		Value: gateway.GetAttString(jsii.String("TargetId")),
	})

	return stack
}

func loadToolSpec(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("failed to read tool spec: " + err.Error())
	}
	return string(data)
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 7:
		return awslogs.RetentionDays_ONE_WEEK
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_ONE_WEEK
	}
}
