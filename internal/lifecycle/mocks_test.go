package lifecycle

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

type mockReconciler struct {
	createRes types.GatewayResult
	createErr error
	updateRes types.GatewayResult
	updateErr error
	panicMsg  string

	creates   []types.GatewayRequest
	updates   []string // physicalID|priorName
	deletes   []string
	updateReq types.GatewayRequest
}

func (m *mockReconciler) Create(_ context.Context, req types.GatewayRequest) (types.GatewayResult, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.creates = append(m.creates, req)
	return m.createRes, m.createErr
}

func (m *mockReconciler) Update(_ context.Context, physicalID, priorName string, req types.GatewayRequest) (types.GatewayResult, error) {
	m.updates = append(m.updates, physicalID+"|"+priorName)
	m.updateReq = req
	return m.updateRes, m.updateErr
}

func (m *mockReconciler) Delete(_ context.Context, physicalID string) {
	m.deletes = append(m.deletes, physicalID)
}

type mockParams struct {
	err     error
	prefix  string
	results []types.GatewayResult
}

func (m *mockParams) PutGatewayParameters(_ context.Context, prefix string, res types.GatewayResult) error {
	m.prefix = prefix
	m.results = append(m.results, res)
	return m.err
}

type mockSender struct {
	err  error
	sent []*cfn.Response
	urls []string
}

func (m *mockSender) Send(_ context.Context, url string, resp *cfn.Response) error {
	m.sent = append(m.sent, resp)
	m.urls = append(m.urls, url)
	return m.err
}

type mockNotifier struct {
	outcomes []types.Outcome
}

func (m *mockNotifier) Notify(_ context.Context, _ cfn.Event, outcome types.Outcome) {
	m.outcomes = append(m.outcomes, outcome)
}
