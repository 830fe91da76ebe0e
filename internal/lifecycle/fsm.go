// Package lifecycle maps CloudFormation custom resource events onto gateway
// reconciliation and reports the outcome back.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

// ErrUnknownRequestType is returned for a RequestType other than Create,
// Update or Delete.
var ErrUnknownRequestType = errors.New("unknown request type")

// kindRules describes what a request kind reads and leaves behind.
type kindRules struct {
	// readsProperties: ResourceProperties must decode into a GatewayRequest.
	readsProperties bool
	// readsPriorName: OldResourceProperties.GatewayName is consulted.
	readsPriorName bool
	// persists: a successful outcome is written to the parameter store.
	persists bool
}

// Rules table: request kind -> behaviour
var rules = map[types.RequestKind]kindRules{
	types.RequestCreate: {readsProperties: true, persists: true},
	types.RequestUpdate: {readsProperties: true, readsPriorName: true, persists: true},
	types.RequestDelete: {},
}

var requestKinds = map[cfn.RequestType]types.RequestKind{
	cfn.RequestCreate: types.RequestCreate,
	cfn.RequestUpdate: types.RequestUpdate,
	cfn.RequestDelete: types.RequestDelete,
}

// KindOf maps a CloudFormation request type onto a RequestKind.
func KindOf(rt cfn.RequestType) (types.RequestKind, error) {
	kind, ok := requestKinds[rt]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRequestType, rt)
	}
	return kind, nil
}

// ReadsProperties reports whether kind needs the resource properties.
func ReadsProperties(kind types.RequestKind) bool {
	return rules[kind].readsProperties
}

// ReadsPriorName reports whether kind compares against the previous name.
func ReadsPriorName(kind types.RequestKind) bool {
	return rules[kind].readsPriorName
}

// Persists reports whether a successful kind writes gateway parameters.
func Persists(kind types.RequestKind) bool {
	return rules[kind].persists
}
