package gateway

import (
	"context"
	"errors"
	"strings"

	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

// ErrNotReady is returned (wrapped) when a gateway does not reach READY
// within the readiness deadline.
var ErrNotReady = errors.New("gateway not ready")

// transientSignals are parent-gateway states the control plane names when it
// rejects a target change because the gateway is still transitioning.
var transientSignals = []string{
	string(types.GatewayCreating),
	string(types.GatewayUpdating),
}

// IsTransient reports whether err signals that the parent gateway is still
// transitioning and the call may succeed later.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range transientSignals {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the resource no longer exists.
func IsNotFound(err error) bool {
	var nf *bactypes.ResourceNotFoundException
	return errors.As(err, &nf)
}

// ClassifyFailure categorizes a reconciliation error.
func ClassifyFailure(err error) types.FailureCategory {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotReady) || errors.Is(err, context.DeadlineExceeded) {
		return types.FailureTimeout
	}
	if IsTransient(err) {
		return types.FailureTransient
	}
	return types.FailurePermanent
}
