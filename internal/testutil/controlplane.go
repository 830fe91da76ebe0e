// Package testutil provides in-memory fakes of the AWS APIs used by the
// gateway custom resource.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	bactypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
)

// Operation names accepted by FailNext, FailAlways and Calls.
const (
	OpListGateways        = "ListGateways"
	OpGetGateway          = "GetGateway"
	OpCreateGateway       = "CreateGateway"
	OpDeleteGateway       = "DeleteGateway"
	OpListGatewayTargets  = "ListGatewayTargets"
	OpCreateGatewayTarget = "CreateGatewayTarget"
	OpUpdateGatewayTarget = "UpdateGatewayTarget"
	OpDeleteGatewayTarget = "DeleteGatewayTarget"
)

type fakeGateway struct {
	id      string
	name    string
	status  bactypes.GatewayStatus
	script  []bactypes.GatewayStatus
	url     string
	targets []*fakeTarget
}

type fakeTarget struct {
	id    string
	name  string
	input any // last create/update input
}

// FakeControlPlane is an in-memory AgentCore control plane.
//
// New gateways start in CREATING and report CreatedStatuses on successive
// GetGateway calls, then stay at the last one. Errors queued with FailNext
// are returned before the operation touches any state.
type FakeControlPlane struct {
	mu sync.Mutex

	// CreatedStatuses is the status sequence newly created gateways report.
	// Defaults to READY.
	CreatedStatuses []bactypes.GatewayStatus
	// OmitURL makes gateway reads return no URL.
	OmitURL bool
	// PageSize limits list responses, forcing pagination when > 0.
	PageSize int

	gateways map[string]*fakeGateway
	order    []string
	seq      int

	failNext   map[string][]error
	failAlways map[string]error
	calls      map[string]int

	CreateGatewayInputs []*bac.CreateGatewayInput
	CreateTargetInputs  []*bac.CreateGatewayTargetInput
	UpdateTargetInputs  []*bac.UpdateGatewayTargetInput
}

// NewFakeControlPlane creates an empty fake control plane.
func NewFakeControlPlane() *FakeControlPlane {
	return &FakeControlPlane{
		CreatedStatuses: []bactypes.GatewayStatus{bactypes.GatewayStatusReady},
		gateways:        make(map[string]*fakeGateway),
		failNext:        make(map[string][]error),
		failAlways:      make(map[string]error),
		calls:           make(map[string]int),
	}
}

// FailNext queues errors for the next calls of op. A nil entry lets that
// call through.
func (f *FakeControlPlane) FailNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = append(f.failNext[op], errs...)
}

// FailAlways makes every call of op return err. A nil err clears it.
func (f *FakeControlPlane) FailAlways(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failAlways, op)
		return
	}
	f.failAlways[op] = err
}

// Calls returns how many times op was invoked.
func (f *FakeControlPlane) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// SeedGateway adds an existing gateway and returns its id. The gateway
// reports statuses on successive GetGateway calls, then stays at the last
// one (READY when none are given).
func (f *FakeControlPlane) SeedGateway(name string, statuses ...bactypes.GatewayStatus) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(statuses) == 0 {
		statuses = []bactypes.GatewayStatus{bactypes.GatewayStatusReady}
	}
	gw := f.addGateway(name)
	gw.status = statuses[0]
	gw.script = append([]bactypes.GatewayStatus(nil), statuses...)
	return gw.id
}

// SeedTarget adds an existing target to a gateway and returns its id.
func (f *FakeControlPlane) SeedTarget(gatewayID, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	gw, ok := f.gateways[gatewayID]
	if !ok {
		panic("testutil: SeedTarget on unknown gateway " + gatewayID)
	}
	return f.addTarget(gw, name, nil).id
}

// GatewayIDs returns the ids of all live gateways in creation order.
func (f *FakeControlPlane) GatewayIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

// TargetIDs returns the ids of the gateway's targets.
func (f *FakeControlPlane) TargetIDs(gatewayID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	gw, ok := f.gateways[gatewayID]
	if !ok {
		return nil
	}
	ids := make([]string, len(gw.targets))
	for i, t := range gw.targets {
		ids[i] = t.id
	}
	return ids
}

// HasGateway reports whether the gateway exists.
func (f *FakeControlPlane) HasGateway(gatewayID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.gateways[gatewayID]
	return ok
}

func (f *FakeControlPlane) ListGateways(_ context.Context, in *bac.ListGatewaysInput, _ ...func(*bac.Options)) (*bac.ListGatewaysOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpListGateways); err != nil {
		return nil, err
	}

	items := make([]bactypes.GatewaySummary, 0, len(f.order))
	for _, id := range f.order {
		gw := f.gateways[id]
		items = append(items, bactypes.GatewaySummary{
			GatewayId: aws.String(gw.id),
			Name:      aws.String(gw.name),
			Status:    gw.status,
		})
	}
	page, next := paginate(len(items), f.PageSize, in.NextToken)
	return &bac.ListGatewaysOutput{Items: items[page[0]:page[1]], NextToken: next}, nil
}

func (f *FakeControlPlane) GetGateway(_ context.Context, in *bac.GetGatewayInput, _ ...func(*bac.Options)) (*bac.GetGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetGateway); err != nil {
		return nil, err
	}

	gw, err := f.gateway(in.GatewayIdentifier)
	if err != nil {
		return nil, err
	}
	if len(gw.script) > 0 {
		gw.status, gw.script = gw.script[0], gw.script[1:]
	}

	out := &bac.GetGatewayOutput{
		GatewayId: aws.String(gw.id),
		Name:      aws.String(gw.name),
		Status:    gw.status,
	}
	if !f.OmitURL {
		out.GatewayUrl = aws.String(gw.url)
	}
	return out, nil
}

func (f *FakeControlPlane) CreateGateway(_ context.Context, in *bac.CreateGatewayInput, _ ...func(*bac.Options)) (*bac.CreateGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpCreateGateway); err != nil {
		return nil, err
	}
	f.CreateGatewayInputs = append(f.CreateGatewayInputs, in)

	name := aws.ToString(in.Name)
	for _, gw := range f.gateways {
		if gw.name == name {
			return nil, &bactypes.ConflictException{Message: aws.String("gateway " + name + " already exists")}
		}
	}

	gw := f.addGateway(name)
	return &bac.CreateGatewayOutput{
		GatewayId: aws.String(gw.id),
		Name:      aws.String(gw.name),
		Status:    gw.status,
	}, nil
}

func (f *FakeControlPlane) DeleteGateway(_ context.Context, in *bac.DeleteGatewayInput, _ ...func(*bac.Options)) (*bac.DeleteGatewayOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpDeleteGateway); err != nil {
		return nil, err
	}

	gw, err := f.gateway(in.GatewayIdentifier)
	if err != nil {
		return nil, err
	}
	if len(gw.targets) > 0 {
		return nil, &bactypes.ValidationException{Message: aws.String("gateway " + gw.id + " still has targets")}
	}

	delete(f.gateways, gw.id)
	for i, id := range f.order {
		if id == gw.id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return &bac.DeleteGatewayOutput{GatewayId: aws.String(gw.id), Status: bactypes.GatewayStatusDeleting}, nil
}

func (f *FakeControlPlane) ListGatewayTargets(_ context.Context, in *bac.ListGatewayTargetsInput, _ ...func(*bac.Options)) (*bac.ListGatewayTargetsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpListGatewayTargets); err != nil {
		return nil, err
	}

	gw, err := f.gateway(in.GatewayIdentifier)
	if err != nil {
		return nil, err
	}
	items := make([]bactypes.TargetSummary, 0, len(gw.targets))
	for _, t := range gw.targets {
		items = append(items, bactypes.TargetSummary{
			TargetId: aws.String(t.id),
			Name:     aws.String(t.name),
		})
	}
	page, next := paginate(len(items), f.PageSize, in.NextToken)
	return &bac.ListGatewayTargetsOutput{Items: items[page[0]:page[1]], NextToken: next}, nil
}

func (f *FakeControlPlane) CreateGatewayTarget(_ context.Context, in *bac.CreateGatewayTargetInput, _ ...func(*bac.Options)) (*bac.CreateGatewayTargetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateTargetInputs = append(f.CreateTargetInputs, in)
	if err := f.enter(OpCreateGatewayTarget); err != nil {
		return nil, err
	}

	gw, err := f.gateway(in.GatewayIdentifier)
	if err != nil {
		return nil, err
	}
	if gw.status != bactypes.GatewayStatusReady {
		return nil, &bactypes.ValidationException{Message: aws.String(fmt.Sprintf("gateway %s is in %s state", gw.id, gw.status))}
	}
	t := f.addTarget(gw, aws.ToString(in.Name), in)
	return &bac.CreateGatewayTargetOutput{TargetId: aws.String(t.id), GatewayArn: aws.String("arn:aws:bedrock-agentcore:us-east-1:123456789012:gateway/" + gw.id)}, nil
}

func (f *FakeControlPlane) UpdateGatewayTarget(_ context.Context, in *bac.UpdateGatewayTargetInput, _ ...func(*bac.Options)) (*bac.UpdateGatewayTargetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateTargetInputs = append(f.UpdateTargetInputs, in)
	if err := f.enter(OpUpdateGatewayTarget); err != nil {
		return nil, err
	}

	gw, err := f.gateway(in.GatewayIdentifier)
	if err != nil {
		return nil, err
	}
	for _, t := range gw.targets {
		if t.id == aws.ToString(in.TargetId) {
			t.name = aws.ToString(in.Name)
			t.input = in
			return &bac.UpdateGatewayTargetOutput{TargetId: aws.String(t.id)}, nil
		}
	}
	return nil, notFound("target", aws.ToString(in.TargetId))
}

func (f *FakeControlPlane) DeleteGatewayTarget(_ context.Context, in *bac.DeleteGatewayTargetInput, _ ...func(*bac.Options)) (*bac.DeleteGatewayTargetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpDeleteGatewayTarget); err != nil {
		return nil, err
	}

	gw, err := f.gateway(in.GatewayIdentifier)
	if err != nil {
		return nil, err
	}
	for i, t := range gw.targets {
		if t.id == aws.ToString(in.TargetId) {
			gw.targets = append(gw.targets[:i], gw.targets[i+1:]...)
			return &bac.DeleteGatewayTargetOutput{TargetId: aws.String(t.id)}, nil
		}
	}
	return nil, notFound("target", aws.ToString(in.TargetId))
}

// enter records the call and returns any injected error. Callers hold f.mu.
func (f *FakeControlPlane) enter(op string) error {
	f.calls[op]++
	if q := f.failNext[op]; len(q) > 0 {
		f.failNext[op] = q[1:]
		if q[0] != nil {
			return q[0]
		}
	}
	return f.failAlways[op]
}

func (f *FakeControlPlane) addGateway(name string) *fakeGateway {
	f.seq++
	id := fmt.Sprintf("%s-%04d", strings.ToLower(name), f.seq)
	gw := &fakeGateway{
		id:     id,
		name:   name,
		status: bactypes.GatewayStatusCreating,
		script: append([]bactypes.GatewayStatus(nil), f.CreatedStatuses...),
		url:    "https://" + id + ".gateway.example.test/mcp",
	}
	f.gateways[id] = gw
	f.order = append(f.order, id)
	return gw
}

func (f *FakeControlPlane) addTarget(gw *fakeGateway, name string, input any) *fakeTarget {
	f.seq++
	t := &fakeTarget{id: fmt.Sprintf("TGT%06d", f.seq), name: name, input: input}
	gw.targets = append(gw.targets, t)
	return t
}

func (f *FakeControlPlane) gateway(id *string) (*fakeGateway, error) {
	gw, ok := f.gateways[aws.ToString(id)]
	if !ok {
		return nil, notFound("gateway", aws.ToString(id))
	}
	return gw, nil
}

func notFound(kind, id string) error {
	return &bactypes.ResourceNotFoundException{Message: aws.String(kind + " " + id + " not found")}
}

// paginate returns the [start, end) window for the page named by token and
// the token of the following page.
func paginate(n, size int, token *string) ([2]int, *string) {
	start := 0
	if t := aws.ToString(token); t != "" {
		fmt.Sscanf(t, "%d", &start)
	}
	if size <= 0 || start+size >= n {
		return [2]int{min(start, n), n}, nil
	}
	end := start + size
	return [2]int{start, end}, aws.String(fmt.Sprintf("%d", end))
}
