// Package cfnresponse delivers custom resource results to the pre-signed
// CloudFormation response URL.
package cfnresponse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

// Sender PUTs responses to CloudFormation. Each response is sent once.
type Sender struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Sender. A nil client uses http.DefaultClient; a nil logger
// uses slog.Default().
func New(client *http.Client, timeout time.Duration, logger *slog.Logger) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{client: client, timeout: timeout, logger: logger}
}

// NewResponse builds the response body for event from outcome. An empty
// reason becomes "<STATUS>: See CloudWatch logs" and an empty physical id
// becomes NONE.
func NewResponse(event cfn.Event, outcome types.Outcome) *cfn.Response {
	resp := cfn.NewResponse(&event)
	resp.Status = cfn.StatusType(outcome.Status)
	resp.Reason = outcome.Reason
	if resp.Reason == "" {
		resp.Reason = string(outcome.Status) + ": See CloudWatch logs"
	}
	resp.PhysicalResourceID = outcome.PhysicalID
	if resp.PhysicalResourceID == "" {
		resp.PhysicalResourceID = types.NoPhysicalID
	}
	if len(outcome.Data) > 0 {
		resp.Data = make(map[string]interface{}, len(outcome.Data))
		for k, v := range outcome.Data {
			resp.Data[k] = v
		}
	}
	return resp
}

// Send PUTs resp to url. It runs detached from ctx cancellation so a
// response still goes out after the invocation context expired, bounded by
// the sender's timeout.
func (s *Sender) Send(ctx context.Context, url string, resp *cfn.Response) error {
	if url == "" {
		return fmt.Errorf("response URL is empty")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building response request: %w", err)
	}
	// S3 pre-signed URLs are signed without a content type.
	req.Header.Set("Content-Type", "")
	req.ContentLength = int64(len(body))

	s.logger.Info("sending CloudFormation response", "status", resp.Status, "physicalResourceId", resp.PhysicalResourceID, "body", string(body))

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= 300 {
		return fmt.Errorf("sending response: unexpected status %d", res.StatusCode)
	}
	return nil
}
