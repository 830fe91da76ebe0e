package types

// AuthConfig configures the gateway's JWT authorizer.
type AuthConfig struct {
	AllowedClientIDs []string `json:"allowedClientIds"`
	DiscoveryURL     string   `json:"discoveryUrl"`
}

// GatewayRequest is the desired state of a gateway and its single target,
// decoded from the custom resource properties.
type GatewayRequest struct {
	Name            string     `json:"name"`
	ExecutorARN     string     `json:"executorArn"`
	ToolSpec        string     `json:"toolSpec"` // raw JSON tool schema document
	RoleARN         string     `json:"roleArn"`
	Auth            AuthConfig `json:"auth"`
	Region          string     `json:"region"`
	ParameterPrefix string     `json:"parameterPrefix"`
}

// GatewayResult identifies the reconciled gateway and target.
type GatewayResult struct {
	GatewayID  string `json:"gatewayId"`
	GatewayURL string `json:"gatewayUrl"`
	TargetID   string `json:"targetId"`
}

// Data returns the result in the shape CloudFormation exposes via Fn::GetAtt.
func (r GatewayResult) Data() map[string]string {
	return map[string]string{
		DataGatewayID:  r.GatewayID,
		DataGatewayURL: r.GatewayURL,
		DataTargetID:   r.TargetID,
	}
}

// Outcome is the final result of one custom resource invocation.
type Outcome struct {
	Status     OutcomeStatus     `json:"status"`
	PhysicalID string            `json:"physicalId"`
	Data       map[string]string `json:"data,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Category   FailureCategory   `json:"category,omitempty"`
}

// Succeeded builds a SUCCESS outcome for the given physical id.
func Succeeded(physicalID string, data map[string]string) Outcome {
	return Outcome{Status: OutcomeSuccess, PhysicalID: physicalID, Data: data}
}

// Failed builds a FAILED outcome carrying reason.
func Failed(physicalID, reason string) Outcome {
	if physicalID == "" {
		physicalID = NoPhysicalID
	}
	return Outcome{Status: OutcomeFailed, PhysicalID: physicalID, Reason: reason}
}
