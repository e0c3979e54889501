package handlers

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/agent"
	"github.com/stridelab/stridecoach/internal/fitness"
	"github.com/stridelab/stridecoach/internal/workouts"
	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// fakeEngine scripts the turn outcome.
type fakeEngine struct {
	content string
	err     error
	// errAfterStream simulates a failure after content was already sent.
	errAfterStream bool
}

func (f *fakeEngine) Turn(_ context.Context, _ models.ChatRequest, sink func(string)) (*agent.Result, error) {
	if f.err != nil && !f.errAfterStream {
		return nil, f.err
	}
	sink(f.content)
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Result{ThreadID: "t1", Content: f.content}, nil
}

func chatRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
}

func decodeEvents(t *testing.T, body string) []models.StreamEvent {
	t.Helper()
	var events []models.StreamEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var ev models.StreamEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	return events
}

func newTestHandlers(t *testing.T, engine TurnRunner) (*Handlers, *workouts.Store, *fitness.Store) {
	t.Helper()
	db, err := workouts.OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ws := workouts.NewStore(db)
	fs := fitness.NewStore(db)
	return New(engine, ws, fs), ws, fs
}

func TestChatStreamsContentThenEnd(t *testing.T) {
	h, _, _ := newTestHandlers(t, &fakeEngine{content: "keep the current plan"})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{"user_id":1,"mode":"conversational","message":"hi"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	events := decodeEvents(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, models.StreamContent, events[0].Type)
	assert.Equal(t, "keep the current plan", events[0].Data)
	assert.Equal(t, models.StreamEnd, events[1].Type)
	assert.Equal(t, models.StreamEndData, events[1].Data)
}

func TestChatValidationFailureIs422(t *testing.T) {
	h, _, _ := newTestHandlers(t, &fakeEngine{err: fault.New(fault.Validation, "message is empty")})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{"user_id":1,"mode":"conversational","message":""}`))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "message is empty", body["error"])
	assert.Equal(t, "validation_failure", body["kind"])
}

func TestChatFaultStatusMapping(t *testing.T) {
	cases := []struct {
		kind   fault.Kind
		status int
	}{
		{fault.Busy, http.StatusConflict},
		{fault.NotFound, http.StatusNotFound},
		{fault.Unavailable, http.StatusServiceUnavailable},
		{fault.Upstream, http.StatusBadGateway},
		{fault.Overrun, http.StatusBadGateway},
	}
	for _, tc := range cases {
		h, _, _ := newTestHandlers(t, &fakeEngine{err: fault.New(tc.kind, "boom")})
		rec := httptest.NewRecorder()
		h.Chat(rec, chatRequest(t, `{"user_id":1,"mode":"conversational","message":"hi"}`))
		assert.Equal(t, tc.status, rec.Code, "kind %v", tc.kind)
	}
}

func TestChatMalformedBody(t *testing.T) {
	h, _, _ := newTestHandlers(t, &fakeEngine{})
	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{not json`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChatMidStreamErrorReplacesEnd(t *testing.T) {
	h, _, _ := newTestHandlers(t, &fakeEngine{
		content:        "partial answer",
		err:            fault.New(fault.Unavailable, "checkpoint write failed"),
		errAfterStream: true,
	})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, `{"user_id":1,"mode":"conversational","message":"hi"}`))

	// Status was already committed as 200; the error arrives in-band.
	assert.Equal(t, http.StatusOK, rec.Code)
	events := decodeEvents(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, models.StreamContent, events[0].Type)
	assert.Equal(t, models.StreamError, events[1].Type)
	assert.Contains(t, events[1].Data, "checkpoint write failed")
}

func TestUserMetricsComputesAndPersists(t *testing.T) {
	hdl, seedDB := newSeededHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1/metrics", nil)
	req = withURLParam(req, "userID", "1")
	rec := httptest.NewRecorder()
	hdl.UserMetrics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var m models.DerivedMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(1), m.UserID)
	require.NotNil(t, m.VMAKmh)
	assert.InDelta(t, 19.8, *m.VMAKmh, 0.001)
	assert.Equal(t, models.RecommendationContinue, m.Recommendation)

	// The snapshot was persisted.
	latest, err := fitness.NewStore(seedDB).Latest(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, latest.VMAKmh)
	assert.InDelta(t, 19.8, *latest.VMAKmh, 0.001)
}

func TestUserMetricsUnknownUser(t *testing.T) {
	h, _, _ := newTestHandlers(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/42/metrics", nil)
	req = withURLParam(req, "userID", "42")
	rec := httptest.NewRecorder()
	h.UserMetrics(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserMetricsBadID(t *testing.T) {
	h, _, _ := newTestHandlers(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc/metrics", nil)
	req = withURLParam(req, "userID", "abc")
	rec := httptest.NewRecorder()
	h.UserMetrics(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// withURLParam injects a chi route parameter for direct handler tests.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newSeededHandlers builds handlers over a database with one user and one
// workout.
func newSeededHandlers(t *testing.T) (*Handlers, *sql.DB) {
	t.Helper()
	db, err := workouts.OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, workouts.SeedUser(ctx, db, models.UserProfile{
		UserID: 1, PreferredActivity: models.ActivityRun,
	}))
	maxSpeed := 5.0
	dur := 3600.0
	dist := 10000.0
	require.NoError(t, workouts.SeedWorkout(ctx, db, models.Workout{
		UserID: 1, Start: time.Now().Add(-24 * time.Hour), Activity: models.ActivityRun,
		DurationSec: &dur, DistanceM: &dist, MaxSpeedMS: &maxSpeed,
	}))

	return New(&fakeEngine{}, workouts.NewStore(db), fitness.NewStore(db)), db
}
