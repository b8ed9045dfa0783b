package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/agent"
	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
)

// emptyStore satisfies agent.Store with no data; every cycle resolves to
// "no agent config for tenant".
type emptyStore struct{}

func (emptyStore) CreateProspect(context.Context, *db.Prospect) error           { return nil }
func (emptyStore) UpdateProspectEnrichment(context.Context, *db.Prospect) error { return nil }
func (emptyStore) UpdateProspectScore(context.Context, string, int, string, string) error {
	return nil
}
func (emptyStore) CreateContact(context.Context, *db.Contact) error         { return nil }
func (emptyStore) CreateCampaign(context.Context, *db.Campaign) error       { return nil }
func (emptyStore) SetDefaultCampaign(context.Context, string, string) error { return nil }
func (emptyStore) CreateOutreachMessage(context.Context, *db.OutreachMessage) error {
	return nil
}
func (emptyStore) AdvanceComboIndex(context.Context, string, int) error { return nil }

func (emptyStore) GetAgentConfig(context.Context, string) (*db.AgentConfig, error) {
	return nil, nil
}
func (emptyStore) StageUsageSince(context.Context, string, string, time.Time) (int, error) {
	return 0, nil
}
func (emptyStore) CountPendingEnrich(context.Context, string) (int, error) { return 0, nil }
func (emptyStore) CountPendingEmails(context.Context, string) (int, error) { return 0, nil }
func (emptyStore) CountPendingScore(context.Context, string) (int, error)  { return 0, nil }
func (emptyStore) CountPendingOutreach(context.Context, string, int) (int, error) {
	return 0, nil
}
func (emptyStore) ListProspectsForEnrich(context.Context, string, int) ([]*db.Prospect, error) {
	return nil, nil
}
func (emptyStore) ListProspectsForEmails(context.Context, string, int) ([]*db.Prospect, error) {
	return nil, nil
}
func (emptyStore) ListProspectsForScore(context.Context, string, int) ([]*db.Prospect, error) {
	return nil, nil
}
func (emptyStore) ListProspectsForOutreach(context.Context, string, int, int) ([]*db.Prospect, error) {
	return nil, nil
}
func (emptyStore) ProspectNameExists(context.Context, string, string) (bool, error) {
	return false, nil
}
func (emptyStore) ListContacts(context.Context, string) ([]*db.Contact, error) { return nil, nil }
func (emptyStore) CreateAgentRun(context.Context, *db.AgentRun) error          { return nil }
func (emptyStore) CreateActivityLog(context.Context, *db.ActivityLog) error    { return nil }
func (emptyStore) TryLockCycle(context.Context, string) (func(context.Context), bool, error) {
	return func(context.Context) {}, true, nil
}

type fakeRunStore struct {
	runs []*db.AgentRun
	err  error
}

func (f *fakeRunStore) ListRecentRuns(ctx context.Context, tenantID string, limit int) ([]*db.AgentRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.runs) > limit {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(runs RunStore, pinger Pinger, bus *event.Bus) *Server {
	logger := zap.NewNop().Sugar()
	if bus == nil {
		bus = event.NewBus(logger)
	}
	orch := agent.NewOrchestrator(emptyStore{}, provider.MockProviders(), bus, logger)
	return New(orch, runs, pinger, bus, logger)
}

func TestHandleCycleValidation(t *testing.T) {
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/cycle", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/cycle", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_id is required")
}

func TestHandleCycleRuns(t *testing.T) {
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cycle", strings.NewReader(`{"tenant_id":"t1"}`))
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result agent.CycleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "t1", result.TenantID)
	assert.Equal(t, db.StageNone, result.Stage)
	assert.NotEmpty(t, result.Reason)
}

func TestHandleRuns(t *testing.T) {
	store := &fakeRunStore{runs: []*db.AgentRun{
		{ID: "r1", TenantID: "t1", Stage: db.StageDiscover, Status: db.RunCompleted},
		{ID: "r2", TenantID: "t1", Stage: db.StageEnrich, Status: db.RunCompleted},
	}}
	s := newTestServer(store, &fakePinger{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?tenant_id=t1&limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []*db.AgentRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "r1", body.Runs[0].ID)
}

func TestHandleRunsValidation(t *testing.T) {
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, limit := range []string{"0", "-5", "201", "abc"} {
		rec = httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?tenant_id=t1&limit="+limit, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit %q", limit)
	}
}

func TestHandleRunsEmptyIsArray(t *testing.T) {
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?tenant_id=t1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"runs":[]`)
}

func TestHandleRunsStoreError(t *testing.T) {
	s := newTestServer(&fakeRunStore{err: fmt.Errorf("connection refused")}, &fakePinger{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?tenant_id=t1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	degraded := newTestServer(&fakeRunStore{}, &fakePinger{err: fmt.Errorf("pool closed")}, nil)
	rec = httptest.NewRecorder()
	degraded.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

// publishLoop republishes an event until done is closed, bridging the gap
// between the client connecting and the handler registering its subscriber.
func publishLoop(bus *event.Bus, evt *event.Event, done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			bus.Publish(&event.Event{Type: evt.Type, TenantID: evt.TenantID, Data: evt.Data})
		}
	}
}

// readSSEData reads the stream until one data line arrives.
func readSSEData(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestHandleEventsStreamsTenantEvents(t *testing.T) {
	logger := zap.NewNop().Sugar()
	bus := event.NewBus(logger)
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, bus)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?tenant_id=t1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The subscription is registered by the handler goroutine; publish until
	// the stream yields an event or the context expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bus.Publish(&event.Event{Type: event.ProspectCreated, TenantID: "t1"})
			}
		}
	}()

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "event: ") {
			eventLine = line
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = line
			break
		}
	}

	assert.Equal(t, "event: "+event.ProspectCreated, eventLine)
	var evt event.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data: ")), &evt))
	assert.Equal(t, "t1", evt.TenantID)
	assert.NotZero(t, evt.Timestamp)
}

func TestHandleEventsOtherClientDisconnect(t *testing.T) {
	bus := event.NewBus(zap.NewNop().Sugar())
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, bus)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	open := func(ctx context.Context) *bufio.Reader {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?tenant_id=t1", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return bufio.NewReader(resp.Body)
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	ctxB, cancelB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelB()

	readerA := open(ctxA)
	readerB := open(ctxB)

	done := make(chan struct{})
	defer close(done)
	go publishLoop(bus, &event.Event{Type: event.ProspectCreated, TenantID: "t1"}, done)

	// Both clients are live.
	readSSEData(t, readerA)
	readSSEData(t, readerB)

	// A's disconnect must only remove A's subscription, not B's.
	cancelA()
	time.Sleep(100 * time.Millisecond)
	payload := readSSEData(t, readerB)

	var evt event.Event
	require.NoError(t, json.Unmarshal([]byte(payload), &evt))
	assert.Equal(t, "t1", evt.TenantID)
}

func TestHandleEventsOutlivesServerWriteTimeout(t *testing.T) {
	bus := event.NewBus(zap.NewNop().Sugar())
	s := newTestServer(&fakeRunStore{}, &fakePinger{}, bus)

	srv := httptest.NewUnstartedServer(s.Handler())
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?tenant_id=t1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Idle past the server-wide write timeout, then expect delivery.
	time.Sleep(400 * time.Millisecond)

	done := make(chan struct{})
	defer close(done)
	go publishLoop(bus, &event.Event{Type: event.CycleCompleted, TenantID: "t1"}, done)

	payload := readSSEData(t, bufio.NewReader(resp.Body))
	assert.Contains(t, payload, event.CycleCompleted)
}
