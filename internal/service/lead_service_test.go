package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/idempotency"
	"github.com/hoclconnect/leads/internal/infra/observability"
	"github.com/hoclconnect/leads/internal/service"
)

// --- Mocks ---

type memStore struct {
	mu        sync.Mutex
	leads     map[string]*domain.Lead
	order     []string
	createErr error
	creates   atomic.Int32
	delay     time.Duration
}

func newMemStore() *memStore {
	return &memStore{leads: map[string]*domain.Lead{}}
}

func (m *memStore) CreateLead(_ context.Context, in *domain.LeadInput) (*domain.Lead, error) {
	m.creates.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &domain.Lead{ID: fmt.Sprintf("lead-%d", len(m.order)+1), CreatedAt: time.Now().UTC(), LeadInput: *in}
	m.leads[l.ID] = l
	m.order = append(m.order, l.ID)
	return l, nil
}

func (m *memStore) ListLeads(context.Context) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for _, id := range m.order {
		out = append(out, *m.leads[id])
	}
	return out, nil
}

func (m *memStore) GetLead(_ context.Context, id string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}
	return l, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

type recordingNotifier struct {
	name string
	err  error
	mu   sync.Mutex
	got  []string
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) NotifyLeadCreated(_ context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, l.ID)
	return r.err
}

func (r *recordingNotifier) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

const validBody = `{"intent":"supplier","industry":"janitorial","amountBand":"drums","timeline":"asap","company":"Acme","score":1}`

// --- Tests ---

func TestLeadService_CreateRecomputesScore(t *testing.T) {
	store := newMemStore()
	metrics := observability.NewMetrics()
	svc := service.NewLeadService(store, metrics, zap.NewNop())

	res, err := svc.Create(context.Background(), []byte(validBody), "")
	require.NoError(t, err)

	// intent 2 + industry 2 + amount 1 + timeline 1 + company 1
	assert.Equal(t, 7, res.Lead.Score)
	assert.False(t, res.Replayed)
	assert.Equal(t, float64(1), metrics.Snapshot().CreatedSupplier)
}

func TestLeadService_ValidationFailureNeverReachesStore(t *testing.T) {
	store := newMemStore()
	metrics := observability.NewMetrics()
	svc := service.NewLeadService(store, metrics, zap.NewNop())

	_, err := svc.Create(context.Background(), []byte(`{"industry":"janitorial"}`), "")

	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, int32(0), store.creates.Load())
	assert.Equal(t, float64(1), metrics.Snapshot().ValidationFailures)
}

func TestLeadService_StorageFailure(t *testing.T) {
	store := newMemStore()
	store.createErr = &domain.ErrStorage{Op: "create_lead", Err: errors.New("connection refused")}
	metrics := observability.NewMetrics()
	svc := service.NewLeadService(store, metrics, zap.NewNop())

	_, err := svc.Create(context.Background(), []byte(validBody), "")

	var se *domain.ErrStorage
	require.ErrorAs(t, err, &se)
	assert.Equal(t, float64(1), metrics.StorageErrors("create_lead"))
}

func TestLeadService_UnknownStatusIsKeptAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := service.NewLeadService(newMemStore(), observability.NewMetrics(), zap.New(core))

	res, err := svc.Create(context.Background(),
		[]byte(`{"intent":"supplier","industry":"x","status":"archived"}`), "")
	require.NoError(t, err)

	assert.Equal(t, "archived", res.Lead.Status)
	assert.Equal(t, 1, logs.FilterMessage("lead status outside known values").Len())
}

func TestLeadService_IdempotentReplay(t *testing.T) {
	store := newMemStore()
	idem := idempotency.NewMemory(time.Minute)
	defer idem.Close()
	metrics := observability.NewMetrics()
	svc := service.NewLeadService(store, metrics, zap.NewNop(), service.WithIdempotency(idem, time.Hour))
	ctx := context.Background()

	first, err := svc.Create(ctx, []byte(validBody), "key-1")
	require.NoError(t, err)
	second, err := svc.Create(ctx, []byte(validBody), "key-1")
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Lead.ID, second.Lead.ID)
	assert.Equal(t, int32(1), store.creates.Load())
	assert.Equal(t, float64(1), metrics.Snapshot().IdempotentReplays)

	other, err := svc.Create(ctx, []byte(validBody), "key-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.Lead.ID, other.Lead.ID)
}

func TestLeadService_IdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	store := newMemStore()
	idem := idempotency.NewMemory(time.Minute)
	defer idem.Close()
	metrics := observability.NewMetrics()
	svc := service.NewLeadService(store, metrics, zap.NewNop(), service.WithIdempotency(idem, time.Hour))
	ctx := context.Background()

	_, err := svc.Create(ctx, []byte(`{"intent":"supplier","industry":"x","email":"victim@x.com"}`), "k1")
	require.NoError(t, err)

	res, err := svc.Create(ctx, []byte(`{"intent":"private-label","industry":"other"}`), "k1")

	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Nil(t, res, "the stored lead is not returned")
	assert.NotContains(t, err.Error(), "victim@x.com")
	assert.Equal(t, int32(1), store.creates.Load())
	assert.Equal(t, float64(0), metrics.Snapshot().IdempotentReplays)
}

func TestLeadService_IdempotencyIgnoresBodyFormatting(t *testing.T) {
	store := newMemStore()
	idem := idempotency.NewMemory(time.Minute)
	defer idem.Close()
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop(), service.WithIdempotency(idem, time.Hour))
	ctx := context.Background()

	first, err := svc.Create(ctx, []byte(`{"intent":"supplier","industry":"janitorial","score":2}`), "k1")
	require.NoError(t, err)
	// key order and the client score preview do not change the request
	second, err := svc.Create(ctx, []byte(`{ "industry": "janitorial", "intent": "supplier", "score": 5 }`), "k1")
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Lead.ID, second.Lead.ID)
}

func TestLeadService_ConcurrentDuplicatesCollapse(t *testing.T) {
	store := newMemStore()
	store.delay = 50 * time.Millisecond
	idem := idempotency.NewMemory(time.Minute)
	defer idem.Close()
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop(), service.WithIdempotency(idem, time.Hour))

	const n = 5
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Create(context.Background(), []byte(validBody), "double-click")
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = res.Lead.ID
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.creates.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestLeadService_NotifiesInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	ok := &recordingNotifier{name: "amqp"}
	bad := &recordingNotifier{name: "smtp", err: errors.New("smtp down")}
	metrics := observability.NewMetrics()
	svc := service.NewLeadService(newMemStore(), metrics, zap.NewNop(), service.WithNotifiers(ok, bad))

	res, err := svc.Create(context.Background(), []byte(validBody), "")
	require.NoError(t, err, "notifier failures must not fail the submission")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))

	assert.Equal(t, []string{res.Lead.ID}, ok.ids())
	assert.Equal(t, []string{res.Lead.ID}, bad.ids())
	assert.Equal(t, float64(1), metrics.NotifyErrors("smtp"))
	assert.Equal(t, float64(0), metrics.NotifyErrors("amqp"))
}

func TestLeadService_ListAndGet(t *testing.T) {
	svc := service.NewLeadService(newMemStore(), observability.NewMetrics(), zap.NewNop())
	ctx := context.Background()

	empty, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	res, err := svc.Create(ctx, []byte(validBody), "")
	require.NoError(t, err)

	leads, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	got, err := svc.Get(ctx, res.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Lead.ID, got.ID)

	_, err = svc.Get(ctx, "missing")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}
