// Package client is the admin HTTP client for the lead API, used by leadctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hoclconnect/leads/internal/domain"
)

var tracer = otel.Tracer("client")

const maxResponseBytes = 8 << 20

// LeadsClient reads leads as the admin user.
type LeadsClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewLeadsClient creates a new LeadsClient. token may be empty for IssueToken.
func NewLeadsClient(httpClient *http.Client, baseURL, token string) *LeadsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LeadsClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lead API returned status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details []domain.Issue  `json:"details"`
}

// ListLeads fetches every lead.
func (c *LeadsClient) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "LeadsClient.ListLeads")
	defer span.End()

	var leads []domain.Lead
	if err := c.do(ctx, http.MethodGet, "/api/leads", nil, &leads); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("leads.count", len(leads)))
	return leads, nil
}

// GetLead fetches one lead. A missing lead is *domain.ErrNotFound.
func (c *LeadsClient) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "LeadsClient.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	var lead domain.Lead
	err := c.do(ctx, http.MethodGet, "/api/leads/"+url.PathEscape(id), nil, &lead)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// IssueToken exchanges admin credentials for an access token.
func (c *LeadsClient) IssueToken(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "LeadsClient.IssueToken")
	defer span.End()

	var tok domain.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/token", req, &tok)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil, &domain.ErrUnauthorized{Message: apiErr.Message}
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *LeadsClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode == http.StatusBadRequest && len(env.Details) > 0 {
		return &domain.ErrValidation{Issues: env.Details}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	return json.Unmarshal(env.Data, out)
}
