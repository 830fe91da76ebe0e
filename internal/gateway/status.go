package gateway

import "github.com/dwsmith1983/agentcore-gateway/pkg/types"

// Phase is the normalized readiness of a gateway status.
type Phase string

const (
	PhasePending Phase = "pending"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// phases maps remote statuses onto readiness phases. Statuses not listed
// (including ones the API may add later) are pending.
var phases = map[types.GatewayStatus]Phase{
	types.GatewayReady:              PhaseReady,
	types.GatewayFailed:             PhaseFailed,
	types.GatewayDeleting:           PhaseFailed,
	types.GatewayCreating:           PhasePending,
	types.GatewayUpdating:           PhasePending,
	types.GatewayUpdateUnsuccessful: PhasePending,
}

// PhaseOf classifies a gateway status.
func PhaseOf(status types.GatewayStatus) Phase {
	if p, ok := phases[status]; ok {
		return p
	}
	return PhasePending
}
