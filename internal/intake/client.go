package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hoclconnect/leads/internal/domain"
)

var tracer = otel.Tracer("intake")

// DefaultTimeout bounds one submission attempt.
const DefaultTimeout = 15 * time.Second

const maxResponseBytes = 1 << 20

// Client submits leads to the lead API over HTTP. It never retries; a
// retry is the visitor pressing Submit again.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type leadEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Details []domain.Issue `json:"details"`
}

// SubmitLead POSTs p to /api/leads.
func (c *Client) SubmitLead(ctx context.Context, p *LeadPayload, idempotencyKey string) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, "Client.SubmitLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.intent", p.Intent))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %w", ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/leads", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	var env leadEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &RejectedError{Message: env.Error, Issues: env.Details}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrSubmissionFailed, resp.StatusCode, msg)
	case decodeErr != nil:
		return nil, fmt.Errorf("%w: decode response: %w", ErrSubmissionFailed, decodeErr)
	case !env.Success || env.Data.ID == "":
		return nil, fmt.Errorf("%w: unexpected response", ErrSubmissionFailed)
	}

	return &Receipt{
		LeadID:   env.Data.ID,
		Replayed: resp.Header.Get("Idempotent-Replayed") == "true",
	}, nil
}
