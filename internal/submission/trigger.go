package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/pkg/metrics"
	"github.com/studio-labs/assessor/pkg/requestid"
)

const DefaultTriggerTimeout = 30 * time.Second

// Trigger asks the workflow engine to analyse an assessment. It only reports whether the request was
// accepted: the engine writes the terminal status back to the API on its own.
type Trigger struct {
	url     string
	timeout time.Duration
	rest    *resty.Client
}

func NewTrigger(webhookURL string, timeout time.Duration) *Trigger {
	if timeout <= 0 {
		timeout = DefaultTriggerTimeout
	}
	return &Trigger{
		url:     webhookURL,
		timeout: timeout,
		rest: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (t *Trigger) Trigger(ctx context.Context, id uuid.UUID, owner string, params Parameters) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body := api.WebhookRequest{
		UserId:           owner,
		AssessmentId:     id.String(),
		CryptoSymbol:     params.Symbol,
		InvestmentAmount: params.Amount,
		RiskTolerance:    params.RiskTolerance,
		TimeHorizon:      params.TimeHorizon,
		Notes:            params.Notes,
	}

	resp, err := t.rest.R().
		SetContext(ctx).
		SetHeader(requestid.Header, requestid.FromContextOrNew(ctx)).
		SetBody(body).
		Post(t.url)
	if err != nil {
		e := classifyTransportError(ctx, err)
		metrics.IncreaseWebhookTriggersMetric(string(e.Code))
		return e
	}

	if resp.IsError() {
		metrics.IncreaseWebhookTriggersMetric(string(CodeWebhookError))
		return NewError(CodeWebhookError, "webhook returned "+resp.Status(), nil).
			WithDetail("status", resp.StatusCode()).
			WithDetail("body", resp.String())
	}

	var result api.WebhookResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		metrics.IncreaseWebhookTriggersMetric(string(CodeWebhookFailed))
		return NewError(CodeWebhookFailed, "malformed webhook response", err).WithDetail("body", resp.String())
	}

	if !result.Success {
		metrics.IncreaseWebhookTriggersMetric(string(CodeWebhookFailed))
		message := result.Message
		if result.Error != nil && *result.Error != "" {
			message = *result.Error
		}
		if message == "" {
			message = "webhook reported a failure"
		}
		return NewError(CodeWebhookFailed, message, nil).WithDetail("assessment_id", result.AssessmentId)
	}

	metrics.IncreaseWebhookTriggersMetric("accepted")
	zap.S().Named("submission").Debugw("webhook accepted assessment", "assessment_id", id, "message", result.Message)
	return nil
}

func classifyTransportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewError(CodeTimeoutError, "webhook request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(CodeTimeoutError, "webhook request timed out", err)
	}
	return NewError(CodeNetworkError, "webhook request failed", err)
}
