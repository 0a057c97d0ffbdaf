package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/auth"
	"github.com/studio-labs/assessor/pkg/requestid"
)

const defaultRequestTimeout = 30 * time.Second

// APIError is returned for every non-2xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// ListParams narrows a list call. Zero values are not sent.
type ListParams struct {
	Status api.AssessmentStatus
	Symbol string
	Limit  int
	Offset int
}

// AssessorClient is a REST client for the assessor API.
type AssessorClient struct {
	rest *resty.Client
}

// NewFromConfig returns an API client from the given config.
func NewFromConfig(config *Config) *AssessorClient {
	return NewAssessorClient(config.Service.Server, config.User, config.Token)
}

// NewFromConfigFile returns an API client using the config read from the given file.
func NewFromConfigFile(filename string) (*AssessorClient, error) {
	config, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(config), nil
}

func NewAssessorClient(server, user, token string) *AssessorClient {
	rest := resty.New().
		SetBaseURL(server).
		SetTimeout(defaultRequestTimeout).
		SetHeader("Accept", "application/json")

	if user != "" {
		rest.SetHeader(auth.UserHeader, user)
	}
	if token != "" {
		rest.SetAuthToken(token)
	}

	rest.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader(requestid.Header, requestid.FromContextOrNew(r.Context()))
		return nil
	})

	return &AssessorClient{rest: rest}
}

func (c *AssessorClient) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx).SetError(&api.Error{})
}

// CreateAssessment calls the create endpoint.
func (c *AssessorClient) CreateAssessment(ctx context.Context, form api.AssessmentForm) (*api.AssessmentEnvelope, error) {
	envelope := &api.AssessmentEnvelope{}
	resp, err := c.request(ctx).
		SetBody(form).
		SetResult(envelope).
		Post("/api/v1/assessments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return envelope, nil
}

// GetAssessment calls the status endpoint. A missing record is an empty envelope, not an error.
func (c *AssessorClient) GetAssessment(ctx context.Context, id uuid.UUID) (*api.AssessmentEnvelope, error) {
	envelope := &api.AssessmentEnvelope{}
	resp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		SetResult(envelope).
		Get("/api/v1/assessments/{id}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return &api.AssessmentEnvelope{}, nil
	}
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return envelope, nil
}

func (c *AssessorClient) ListAssessments(ctx context.Context, params ListParams) (*api.AssessmentList, error) {
	req := c.request(ctx)
	if params.Status != "" {
		req.SetQueryParam("status", string(params.Status))
	}
	if params.Symbol != "" {
		req.SetQueryParam("symbol", params.Symbol)
	}
	if params.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		req.SetQueryParam("offset", strconv.Itoa(params.Offset))
	}

	list := &api.AssessmentList{}
	resp, err := req.SetResult(list).Get("/api/v1/assessments")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *AssessorClient) DeleteAssessment(ctx context.Context, id uuid.UUID) (*api.AssessmentEnvelope, error) {
	envelope := &api.AssessmentEnvelope{}
	resp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		SetResult(envelope).
		Delete("/api/v1/assessments/{id}")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return envelope, nil
}

func (c *AssessorClient) GetStats(ctx context.Context) (*api.AssessmentStats, error) {
	stats := &api.AssessmentStats{}
	resp, err := c.request(ctx).SetResult(stats).Get("/api/v1/assessments/stats")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return stats, nil
}

// Export downloads the report of the caller's assessments and returns its bytes and content type.
func (c *AssessorClient) Export(ctx context.Context, format string) ([]byte, string, error) {
	resp, err := c.request(ctx).
		SetQueryParam("format", format).
		SetHeader("Accept", "*/*").
		Get("/api/v1/assessments/export")
	if err := checkResponse(resp, err); err != nil {
		return nil, "", err
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// PutResult writes a terminal result the way the workflow engine does.
func (c *AssessorClient) PutResult(ctx context.Context, id uuid.UUID, result api.AssessmentResult) (*api.AssessmentEnvelope, error) {
	envelope := &api.AssessmentEnvelope{}
	resp, err := c.request(ctx).
		SetPathParam("id", id.String()).
		SetBody(result).
		SetResult(envelope).
		Put("/api/v1/engine/assessments/{id}/result")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return envelope, nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
		RequestID:  resp.Header().Get(requestid.Header),
	}
	if e, ok := resp.Error().(*api.Error); ok && e != nil {
		apiErr.Message = e.Message
	}
	return apiErr
}
