package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/client"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	authed := func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer good" }

	r.Get("/api/leads", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			write(w, http.StatusUnauthorized, domain.Envelope{Error: "Invalid or expired token"})
			return
		}
		write(w, http.StatusOK, domain.Envelope{Success: true, Data: []domain.Lead{
			{ID: "l1", LeadInput: domain.LeadInput{Intent: domain.IntentSupplier, Industry: "clinical"}},
		}})
	})
	r.Get("/api/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "l1" {
			write(w, http.StatusNotFound, domain.Envelope{Error: "Lead not found"})
			return
		}
		write(w, http.StatusOK, domain.Envelope{Success: true, Data: domain.Lead{ID: "l1"}})
	})
	r.Post("/api/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req domain.TokenRequest
		json.NewDecoder(r.Body).Decode(&req)
		switch {
		case req.Username == "":
			write(w, http.StatusBadRequest, domain.Envelope{Error: "Validation error", Details: []domain.Issue{
				domain.NewIssue("username", domain.CodeRequired, "Required"),
			}})
		case req.Password != "pw":
			write(w, http.StatusUnauthorized, domain.Envelope{Error: "Invalid credentials"})
		default:
			write(w, http.StatusOK, domain.Envelope{Success: true, Data: domain.TokenResponse{AccessToken: "good", ExpiresIn: 900}})
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLeadsClient_ListAndGet(t *testing.T) {
	srv := fakeAPI(t)
	c := client.NewLeadsClient(srv.Client(), srv.URL, "good")
	ctx := context.Background()

	leads, err := c.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "clinical", leads[0].Industry)

	lead, err := c.GetLead(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "l1", lead.ID)

	_, err = c.GetLead(ctx, "nope")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestLeadsClient_Unauthorized(t *testing.T) {
	srv := fakeAPI(t)

	_, err := client.NewLeadsClient(srv.Client(), srv.URL, "bad").ListLeads(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)
}

func TestLeadsClient_IssueToken(t *testing.T) {
	srv := fakeAPI(t)
	c := client.NewLeadsClient(srv.Client(), srv.URL, "")
	ctx := context.Background()

	tok, err := c.IssueToken(ctx, &domain.TokenRequest{Username: "admin", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "good", tok.AccessToken)

	_, err = c.IssueToken(ctx, &domain.TokenRequest{Username: "admin", Password: "x"})
	var ue *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &ue)

	_, err = c.IssueToken(ctx, &domain.TokenRequest{})
	var ve *domain.ErrValidation
	assert.ErrorAs(t, err, &ve)
}
