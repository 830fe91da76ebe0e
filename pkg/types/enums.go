// Package types defines the public domain types for the gateway custom resource.
package types

// RequestKind is the lifecycle intent delivered by CloudFormation.
type RequestKind string

// RequestKind values mirror the CloudFormation custom resource RequestType field.
const (
	RequestCreate RequestKind = "Create"
	RequestUpdate RequestKind = "Update"
	RequestDelete RequestKind = "Delete"
)

// OutcomeStatus is the completion status reported back to CloudFormation.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "SUCCESS"
	OutcomeFailed  OutcomeStatus = "FAILED"
)

// GatewayStatus represents the remote lifecycle state of a gateway.
type GatewayStatus string

// GatewayStatus values enumerate the states reported by the control plane.
const (
	GatewayCreating           GatewayStatus = "CREATING"
	GatewayUpdating           GatewayStatus = "UPDATING"
	GatewayUpdateUnsuccessful GatewayStatus = "UPDATE_UNSUCCESSFUL"
	GatewayDeleting           GatewayStatus = "DELETING"
	GatewayReady              GatewayStatus = "READY"
	GatewayFailed             GatewayStatus = "FAILED"
)

// FailureCategory classifies why a control-plane call failed.
type FailureCategory string

const (
	FailureTransient FailureCategory = "TRANSIENT"
	FailurePermanent FailureCategory = "PERMANENT"
	FailureTimeout   FailureCategory = "TIMEOUT"
)

// Keys of the Data map returned to CloudFormation on success. Templates read
// them with Fn::GetAtt.
const (
	DataGatewayID  = "GatewayId"
	DataGatewayURL = "GatewayUrl"
	DataTargetID   = "TargetId"
)

// NoPhysicalID is reported when a request fails before any gateway exists.
const NoPhysicalID = "NONE"
