package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"remind-lab/analytics"
	"remind-lab/api"
	"remind-lab/calendar"
	"remind-lab/domain"
	"remind-lab/messaging"
	"remind-lab/mocks"
	"remind-lab/observability"
	"remind-lab/projection"
	"remind-lab/repositories"
	"remind-lab/services"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubRuntime struct {
	running  int
	timeline *projection.Timeline
}

func (r stubRuntime) Running() int                   { return r.running }
func (r stubRuntime) Timeline() *projection.Timeline { return r.timeline }

type fixture struct {
	router       *gin.Engine
	orchestrator *mocks.MockIOrchestrator
	sender       *messaging.SimulatedSender
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := analytics.Open(filepath.Join(t.TempDir(), "analytics.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	sealer, err := calendar.NewSealer("test secret")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	sender := messaging.NewSimulatedSender(log, 10)

	messages := repositories.NewMessageRepository(db, log, nil)
	preferences := repositories.NewPreferenceRepository(db, log)
	handler := api.NewHandler(api.Deps{
		Assistant:   services.NewAssistantService(messages, orchestrator, nil, metrics, log),
		Reminders:   services.NewReminderService(repositories.NewReminderRepository(db, log), preferences, store, metrics, log),
		Calendars:   services.NewCalendarService(calendar.NewRegistry(), sealer, repositories.NewCalendarRepository(db, log), log),
		Preferences: preferences,
		Analytics:   store,
		Sender:      sender,
		Stats:       observability.NewMonitor(log, metrics, 0),
		Runtime:     stubRuntime{running: 3, timeline: projection.NewTimeline(10)},
	}, log)

	return fixture{
		router:       api.NewRouter(handler, registry, api.RouterConfig{}, log),
		orchestrator: orchestrator,
		sender:       sender,
	}
}

func (f fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestMessages(t *testing.T) {
	f := newFixture(t)

	t.Run("post stores and dispatches", func(t *testing.T) {
		req := require.New(t)
		f.orchestrator.EXPECT().Dispatch(gomock.Any()).DoAndReturn(func(job domain.AnalysisJob) bool {
			req.Equal(domain.FromAPI, job.Origin)
			return true
		}).Times(1)

		w := f.do(t, http.MethodPost, "/api/messages", map[string]string{
			"phone":   "+34 600 000 001",
			"content": "recuérdame mañana a las 9 llamar al dentista",
		})
		req.Equal(http.StatusCreated, w.Code)
		msg := decode[map[string]any](t, w)
		req.Equal("+34600000001", msg["phone"])
		req.Equal(false, msg["processed"])

		w = f.do(t, http.MethodGet, "/api/messages?phone=%2B34600000001", nil)
		req.Equal(http.StatusOK, w.Code)
		list := decode[struct {
			Messages []map[string]any `json:"messages"`
		}](t, w)
		req.Len(list.Messages, 1)
		req.Equal(msg["id"], list.Messages[0]["id"])
	})

	t.Run("webhook answers with an empty 200", func(t *testing.T) {
		req := require.New(t)
		f.orchestrator.EXPECT().Dispatch(gomock.Any()).DoAndReturn(func(job domain.AnalysisJob) bool {
			req.Equal(domain.FromTransport, job.Origin)
			return true
		}).Times(1)

		w := f.do(t, http.MethodPost, "/api/webhook", map[string]string{"phone": "+34600000002", "content": "hola"})
		req.Equal(http.StatusOK, w.Code)
		req.Empty(w.Body.String())
	})

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantDetail string
	}{
		{name: "broken json", body: `{"phone":`, wantStatus: http.StatusBadRequest},
		{name: "missing content", body: map[string]string{"phone": "+34600000001"}, wantStatus: http.StatusBadRequest, wantDetail: "content: required"},
		{name: "bad phone", body: map[string]string{"phone": "abc", "content": "hola"}, wantStatus: http.StatusBadRequest},
		{name: "blank content", body: map[string]string{"phone": "+34600000001", "content": "   "}, wantStatus: http.StatusBadRequest},
		{
			name:       "unsupported attachment",
			body:       map[string]string{"phone": "+34600000001", "content": "mira", "attachment_url": "https://example.com/x", "attachment_type": "application/x-nothing"},
			wantStatus: http.StatusUnsupportedMediaType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			w := f.do(t, http.MethodPost, "/api/messages", tt.body)
			req.Equal(tt.wantStatus, w.Code)
			res := decode[struct {
				Error   string   `json:"error"`
				Details []string `json:"details"`
			}](t, w)
			req.NotEmpty(res.Error)
			if tt.wantDetail != "" {
				req.Contains(res.Details, tt.wantDetail)
			}
		})
	}
}

func TestReminders(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	w := f.do(t, http.MethodPost, "/api/reminders", map[string]any{
		"phone":       "+34600000001",
		"title":       "regar las plantas",
		"datetime":    "2030-06-04T15:00:00Z",
		"timezone":    "Europe/Madrid",
		"recurring":   true,
		"frequency":   "weekly",
		"shared_with": []string{"+34600000009"},
	})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	req.Equal("weekly", created["frequency"])
	req.Equal(true, created["recurring"])
	req.Equal(true, created["shared"])
	id := created["id"].(string)

	w = f.do(t, http.MethodGet, "/api/reminders?phone=%2B34600000001", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Len(decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodPost, "/api/reminders/"+id+"/share", map[string]any{"phones": []string{"+34600000010"}})
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	req.Len(decode[map[string]any](t, w)["shared_with"], 2)

	w = f.do(t, http.MethodPost, "/api/reminders/"+id+"/complete", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal(true, decode[map[string]any](t, w)["completed"])

	// Completed reminders cannot be shared any more
	w = f.do(t, http.MethodPost, "/api/reminders/"+id+"/share", map[string]any{"phones": []string{"+34600000011"}})
	req.Equal(http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/analytics/%2B34600000001", nil)
	req.Equal(http.StatusOK, w.Code)
	counters := decode[map[string]any](t, w)
	req.EqualValues(1, counters["reminders"])
	req.EqualValues(1, counters["completed"])

	rejected := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "missing datetime", method: http.MethodPost, path: "/api/reminders", body: map[string]any{"phone": "+34600000001", "title": "x"}, wantStatus: http.StatusBadRequest},
		{name: "recurring without frequency", method: http.MethodPost, path: "/api/reminders", body: map[string]any{"phone": "+34600000001", "title": "x", "datetime": "2030-01-01T10:00:00Z", "recurring": true}, wantStatus: http.StatusBadRequest},
		{name: "unknown timezone", method: http.MethodPost, path: "/api/reminders", body: map[string]any{"phone": "+34600000001", "title": "x", "datetime": "2030-01-01T10:00:00Z", "timezone": "Mars/Olympus"}, wantStatus: http.StatusBadRequest},
		{name: "bad id", method: http.MethodPost, path: "/api/reminders/42/complete", wantStatus: http.StatusBadRequest},
		{name: "unknown id", method: http.MethodPost, path: "/api/reminders/" + uuid.NewString() + "/complete", wantStatus: http.StatusNotFound},
		{name: "share with nobody", method: http.MethodPost, path: "/api/reminders/" + id + "/share", body: map[string]any{"phones": []string{}}, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantStatus, f.do(t, tt.method, tt.path, tt.body).Code)
		})
	}
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	// Given nothing stored, the defaults are returned
	w := f.do(t, http.MethodGet, "/api/preferences/%2B34600000001", nil)
	req.Equal(http.StatusOK, w.Code)
	pref := decode[map[string]any](t, w)
	req.Equal("UTC", pref["timezone"])
	req.Equal("08:00", pref["greeting_time"])

	w = f.do(t, http.MethodPut, "/api/preferences/%2B34600000001", map[string]any{
		"timezone":         "Europe/Madrid",
		"weather_location": "Madrid",
		"weather_alerts":   true,
		"morning_greeting": true,
		"quiet_hours":      map[string]string{"start": "23:00", "end": "07:00"},
	})
	req.Equal(http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/preferences/%2B34600000001", nil)
	pref = decode[map[string]any](t, w)
	req.Equal("Europe/Madrid", pref["timezone"])
	req.Equal("es", pref["language"])
	req.Equal(map[string]any{"start": "23:00", "end": "07:00"}, pref["quiet_hours"])

	w = f.do(t, http.MethodPut, "/api/preferences/%2B34600000001", map[string]any{"greeting_time": "25:00"})
	req.Equal(http.StatusBadRequest, w.Code)
	req.Contains(w.Body.String(), "greeting_time: clock")

	w = f.do(t, http.MethodGet, "/api/preferences/nope", nil)
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestCalendars(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	w := f.do(t, http.MethodGet, "/api/calendar-providers", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Len(decode[[]map[string]any](t, w), 4)

	w = f.do(t, http.MethodPost, "/api/calendars", map[string]string{"phone": "+34600000001", "type": "ical"})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())
	cal := decode[map[string]any](t, w)
	req.Equal("ical", cal["type"])
	req.NotContains(w.Body.String(), "token")

	w = f.do(t, http.MethodGet, "/api/calendars?phone=%2B34600000001", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Len(decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/calendars/"+cal["id"].(string)+"/events", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Empty(decode[[]map[string]any](t, w))

	req.Equal(http.StatusNotImplemented, f.do(t, http.MethodPost, "/api/calendars", map[string]string{"phone": "+34600000001", "type": "google"}).Code)
	req.Equal(http.StatusBadRequest, f.do(t, http.MethodPost, "/api/calendars", map[string]string{"phone": "+34600000001", "type": "caldav"}).Code)
	req.Equal(http.StatusBadRequest, f.do(t, http.MethodGet, "/api/calendars", nil).Code)
	req.Equal(http.StatusNotFound, f.do(t, http.MethodGet, "/api/calendars/"+uuid.NewString()+"/events", nil).Code)
}

func TestHealthAndStatus(t *testing.T) {
	f := newFixture(t)
	req := require.New(t)

	w := f.do(t, http.MethodGet, "/api/whatsapp/status", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal(messaging.Status{Ready: true}, decode[messaging.Status](t, w))

	w = f.do(t, http.MethodGet, "/api/health", nil)
	req.Equal(http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	req.Equal("ok", health["status"])
	req.EqualValues(3, health["workers"])

	f.sender.SetReady(false, "session closed")
	w = f.do(t, http.MethodGet, "/api/health", nil)
	req.Equal("degraded", decode[map[string]any](t, w)["status"])

	w = f.do(t, http.MethodGet, "/metrics", nil)
	req.Equal(http.StatusOK, w.Code)
	req.True(strings.Contains(w.Body.String(), "remind_messages_ingested_total"))
}
