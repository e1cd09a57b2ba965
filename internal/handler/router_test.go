package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/handler"
	"github.com/hoclconnect/leads/internal/infra/idempotency"
	"github.com/hoclconnect/leads/internal/infra/observability"
	"github.com/hoclconnect/leads/internal/infra/resilience"
	"github.com/hoclconnect/leads/internal/infra/sqlstore"
	"github.com/hoclconnect/leads/internal/port"
	"github.com/hoclconnect/leads/internal/service"
)

const jwtSecret = "router-test-secret"

type testEnv struct {
	router  http.Handler
	auth    *service.AuthService
	metrics *observability.Metrics
	logs    *observer.ObservedLogs
}

type envOption func(*handler.RouterConfig)

func newEnv(t *testing.T, store port.LeadStore, opts ...envOption) *testEnv {
	t.Helper()
	if store == nil {
		s, err := sqlstore.Open(context.Background(), sqlstore.OpenConfig{
			Dialect: sqlstore.DialectSQLite,
			DSN:     filepath.Join(t.TempDir(), "leads.db"),
			Retry:   resilience.Config{MaxRetries: 0},
		}, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		require.NoError(t, s.EnsureSchema(context.Background()))
		store = s
	}

	idem := idempotency.NewMemory(time.Minute)
	t.Cleanup(func() { idem.Close() })

	metrics := observability.NewMetrics()
	leadSvc := service.NewLeadService(store, metrics, zap.NewNop(), service.WithIdempotency(idem, time.Hour))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := service.NewAuthService(jwtSecret, time.Hour, "admin", string(hash), zap.NewNop())

	cfg := handler.RouterConfig{
		AllowedOrigins: []string{"http://localhost:5000"},
		OriginPattern:  regexp.MustCompile(`\.repl\.co$`),
		LeadRateLimit:  100,
		LeadRateWindow: time.Minute,
	}
	for _, o := range opts {
		o(&cfg)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	return &testEnv{
		router:  handler.NewRouter(leadSvc, authSvc, cfg, metrics, zap.New(core)),
		auth:    authSvc,
		metrics: metrics,
		logs:    logs,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminHeader(t *testing.T) map[string]string {
	t.Helper()
	tok, err := e.auth.MintToken("admin")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details []domain.Issue  `json:"details"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// --- Operational ---

func TestHealth(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Server is running"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/readyz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

type downStore struct{ port.LeadStore }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func (downStore) CreateLead(context.Context, *domain.LeadInput) (*domain.Lead, error) {
	return nil, &domain.ErrStorage{Op: "create_lead", Err: errors.New("connection refused")}
}

func (downStore) ListLeads(context.Context) ([]domain.Lead, error) {
	return nil, &domain.ErrStorage{Op: "list_leads", Err: errors.New("connection refused")}
}

func TestReadyz_StoreDown(t *testing.T) {
	env := newEnv(t, downStore{})

	rec := env.do(t, http.MethodGet, "/readyz", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics(t *testing.T) {
	env := newEnv(t, nil)
	env.do(t, http.MethodPost, "/api/leads", `{"intent":"supplier","industry":"janitorial"}`, nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leads_created_total")
}

// --- Leads ---

func TestCreateLead_Supplier(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/leads", `{
		"intent": "supplier",
		"industry": "janitorial",
		"amountBand": "drums",
		"timeline": "asap",
		"company": "Acme Facilities",
		"email": "ops@acme.test",
		"ackPurity": true,
		"requirements": {"path": "bulk", "bulk_use_case": "janitorial"},
		"score": 8
	}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Lead created successfully", body.Message)

	var lead domain.Lead
	require.NoError(t, json.Unmarshal(body.Data, &lead))
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.Equal(t, domain.IntentSupplier, lead.Intent)
	assert.Equal(t, "new", lead.Status)
	// intent 2 + industry 2 + amount 1 + timeline 1 + company 1
	assert.Equal(t, 7, lead.Score)
	assert.JSONEq(t, `{"path":"bulk","bulk_use_case":"janitorial"}`, string(lead.Requirements))
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
}

func TestCreateLead_ValidationError(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/leads", `{"intent":"buyer"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Validation error", body.Error)
	require.Len(t, body.Details, 2)
	assert.Equal(t, "industry", body.Details[0].Field)
	assert.Equal(t, "intent", body.Details[1].Field)
	assert.Equal(t, domain.CodeInvalidEnum, body.Details[1].Code)

	list := env.do(t, http.MethodGet, "/api/leads", "", env.adminHeader(t))
	assert.JSONEq(t, `[]`, string(decode(t, list).Data))
}

func TestCreateLead_MalformedJSON(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/leads", `{"intent":`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation error", body.Error)
	assert.Len(t, body.Details, 1)
}

func TestCreateLead_BodyTooLarge(t *testing.T) {
	env := newEnv(t, nil)
	big := `{"intent":"supplier","industry":"x","notes":"` + strings.Repeat("a", 2<<20) + `"}`

	rec := env.do(t, http.MethodPost, "/api/leads", big, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLead_StorageFailureHidesDetail(t *testing.T) {
	env := newEnv(t, downStore{})

	rec := env.do(t, http.MethodPost, "/api/leads", `{"intent":"supplier","industry":"janitorial"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, "failed to persist lead", body.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCreateLead_IdempotencyKeyReplays(t *testing.T) {
	env := newEnv(t, nil)
	body := `{"intent":"private-label","industry":"beauty"}`
	hdr := map[string]string{"Idempotency-Key": "form-7f3a"}

	first := env.do(t, http.MethodPost, "/api/leads", body, hdr)
	second := env.do(t, http.MethodPost, "/api/leads", body, hdr)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(decode(t, first).Data), string(decode(t, second).Data))

	list := env.do(t, http.MethodGet, "/api/leads", "", env.adminHeader(t))
	var leads []domain.Lead
	require.NoError(t, json.Unmarshal(decode(t, list).Data, &leads))
	assert.Len(t, leads, 1)
}

func TestCreateLead_IdempotencyKeyReusedIsConflict(t *testing.T) {
	env := newEnv(t, nil)
	hdr := map[string]string{"Idempotency-Key": "k1"}

	first := env.do(t, http.MethodPost, "/api/leads", `{"intent":"supplier","industry":"x","email":"victim@x.com","phone":"555-0100"}`, hdr)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(t, http.MethodPost, "/api/leads", `{"intent":"private-label","industry":"other"}`, hdr)

	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Empty(t, second.Header().Get("Idempotent-Replayed"))
	assert.NotContains(t, second.Body.String(), "victim@x.com")
	assert.JSONEq(t, `{"success":false,"error":"Idempotency-Key was already used for a different request"}`, second.Body.String())
}

func TestLeads_AdminReadsAreLogged(t *testing.T) {
	env := newEnv(t, nil)
	admin := env.adminHeader(t)

	created := env.do(t, http.MethodPost, "/api/leads", `{"intent":"supplier","industry":"clinical"}`, nil)
	require.Equal(t, http.StatusCreated, created.Code)
	var lead domain.Lead
	require.NoError(t, json.Unmarshal(decode(t, created).Data, &lead))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/leads", "", admin).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/leads/"+lead.ID, "", admin).Code)

	listed := env.logs.FilterMessage("admin listed leads").All()
	require.Len(t, listed, 1)
	assert.Equal(t, "admin", listed[0].ContextMap()["admin"])
	assert.Equal(t, int64(1), listed[0].ContextMap()["count"])

	read := env.logs.FilterMessage("admin read lead").All()
	require.Len(t, read, 1)
	assert.Equal(t, "admin", read[0].ContextMap()["admin"])
	assert.Equal(t, lead.ID, read[0].ContextMap()["lead_id"])
}

func TestLeads_RoundTrip(t *testing.T) {
	env := newEnv(t, nil)
	admin := env.adminHeader(t)

	created := env.do(t, http.MethodPost, "/api/leads", `{"intent":"supplier","industry":"clinical","regionPref":"near-me"}`, nil)
	require.Equal(t, http.StatusCreated, created.Code)
	var lead domain.Lead
	require.NoError(t, json.Unmarshal(decode(t, created).Data, &lead))

	got := env.do(t, http.MethodGet, "/api/leads/"+lead.ID, "", admin)
	require.Equal(t, http.StatusOK, got.Code)
	body := decode(t, got)
	assert.True(t, body.Success)
	assert.JSONEq(t, string(decode(t, created).Data), string(body.Data))

	missing := env.do(t, http.MethodGet, "/api/leads/does-not-exist", "", admin)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, `{"success":false,"error":"Lead not found"}`, missing.Body.String())
}

func TestListLeads_StorageFailure(t *testing.T) {
	env := newEnv(t, downStore{})

	rec := env.do(t, http.MethodGet, "/api/leads", "", env.adminHeader(t))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
}

// --- Auth ---

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newEnv(t, nil)
	other := service.NewAuthService("someone-else", time.Hour, "admin", "", zap.NewNop())
	foreign, err := other.MintToken("admin")
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"missing":      nil,
		"not bearer":   {"Authorization": "Basic YWRtaW46czNjcmV0"},
		"wrong secret": {"Authorization": "Bearer " + foreign},
		"garbage":      {"Authorization": "Bearer abc.def.ghi"},
	}
	for name, hdr := range cases {
		t.Run(name, func(t *testing.T) {
			for _, path := range []string{"/api/leads", "/api/leads/any"} {
				rec := env.do(t, http.MethodGet, path, "", hdr)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				body := decode(t, rec)
				assert.False(t, body.Success)
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestIssueToken(t *testing.T) {
	env := newEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/token", `{"username":"admin","password":"s3cret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok domain.TokenResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tok))
	assert.Equal(t, 3600, tok.ExpiresIn)

	list := env.do(t, http.MethodGet, "/api/leads", "", map[string]string{"Authorization": "Bearer " + tok.AccessToken})
	assert.Equal(t, http.StatusOK, list.Code)

	bad := env.do(t, http.MethodPost, "/api/auth/token", `{"username":"admin","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	empty := env.do(t, http.MethodPost, "/api/auth/token", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

// --- Rate limit & CORS ---

func TestCreateLead_RateLimited(t *testing.T) {
	env := newEnv(t, nil, func(c *handler.RouterConfig) { c.LeadRateLimit = 2 })
	body := `{"intent":"supplier","industry":"janitorial"}`

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/leads", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/leads", body, nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Too many requests"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	for i := 1; i <= 4; i++ {
		spoofed := env.do(t, http.MethodPost, "/api/leads", body, map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			"X-Real-IP":       fmt.Sprintf("10.0.1.%d", i),
		})
		assert.Equal(t, http.StatusTooManyRequests, spoofed.Code, "forwarding headers from an untrusted peer are ignored")
	}
}

func TestCreateLead_RateLimitedBehindTrustedProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1
	proxies, err := handler.ParseTrustedProxies([]string{"192.0.2.0/24"})
	require.NoError(t, err)
	env := newEnv(t, nil, func(c *handler.RouterConfig) {
		c.LeadRateLimit = 1
		c.TrustedProxies = proxies
	})
	body := `{"intent":"supplier","industry":"janitorial"}`
	from := func(xff string) int {
		return env.do(t, http.MethodPost, "/api/leads", body, map[string]string{"X-Forwarded-For": xff}).Code
	}

	assert.Equal(t, http.StatusCreated, from("203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, from("203.0.113.9"))
	assert.Equal(t, http.StatusCreated, from("198.51.100.7"), "limit is per client IP")
	assert.Equal(t, http.StatusTooManyRequests, from("10.9.9.9, 203.0.113.9"), "only the hop the proxy saw counts")
}

func TestCORS(t *testing.T) {
	env := newEnv(t, nil)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5000", true},
		{"https://hocl-connect.alice.repl.co", true},
		{"https://evil.example", false},
		{"https://repl.co.evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			rec := env.do(t, http.MethodOptions, "/api/leads", "", map[string]string{
				"Origin":                         tt.origin,
				"Access-Control-Request-Method":  http.MethodPost,
				"Access-Control-Request-Headers": "Content-Type, Idempotency-Key",
			})
			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
