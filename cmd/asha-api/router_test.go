package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/asha/internal/api/rpc"
	"github.com/spherical-ai/asha/internal/app"
	"github.com/spherical-ai/asha/internal/config"
)

func newTestApp(t *testing.T, mutate func(*config.Config), opts app.Options) *app.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "asha.db")
	if mutate != nil {
		mutate(cfg)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC) }
	}
	a, err := app.New(context.Background(), cfg, nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_HealthAndReady(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	rec = do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asha_http_requests_total")
}

func TestRouter_ChatAndHistory(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	rec := do(t, h, http.MethodPost, "/api/v1/chat/messages", map[string]string{
		"sessionId": "s1",
		"text":      "Find remote work in Bangalore",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "s1", body["sessionId"])
	assert.Equal(t, "job_search", body["intent"])
	reply := body["reply"].(map[string]interface{})
	assert.NotEmpty(t, reply["text"])
	assert.Equal(t, "job", reply["attachment"].(map[string]interface{})["type"])

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/history?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	turns := decode(t, rec)["turns"].([]interface{})
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].(map[string]interface{})["sender"])

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/history?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ChatValidation(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing text", map[string]string{"sessionId": "s1"}},
		{"too long", map[string]string{"text": strings.Repeat("a", 2001)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/chat/messages", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ChatHonoursConfiguredLength(t *testing.T) {
	h := NewRouter(newTestApp(t, func(cfg *config.Config) {
		cfg.Pipeline.MaxMessageLength = 20
	}, app.Options{WithoutStorage: true}))

	rec := do(t, h, http.MethodPost, "/api/v1/chat/messages", map[string]string{"text": strings.Repeat("a", 21)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text must be at most 20 characters", decode(t, rec)["detail"])

	rec = do(t, h, http.MethodPost, "/api/v1/chat/messages", map[string]string{"text": "I need a mentor"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_NLP(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	rec := do(t, h, http.MethodPost, "/api/v1/nlp/intent", map[string]string{"text": "I need a mentor"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mentorship", decode(t, rec)["intent"])

	rec = do(t, h, http.MethodPost, "/api/v1/bias/detect", map[string]string{"text": "We need a chairman"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["hasBias"])
	assert.Equal(t, "We need a chairperson", body["correctedText"])
}

func TestRouter_Catalog(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	rec := do(t, h, http.MethodGet, "/api/v1/jobs/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, decode(t, rec)["total"])

	rec = do(t, h, http.MethodGet, "/api/v1/jobs/?location=bangalore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]interface{})
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Contains(t, strings.ToLower(it.(map[string]interface{})["location"].(string)), "bangalore")
	}

	rec = do(t, h, http.MethodGet, "/api/v1/jobs/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Senior Software Engineer", decode(t, rec)["title"])

	rec = do(t, h, http.MethodGet, "/api/v1/jobs/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/events/?start=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Applications(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	tests := []struct {
		name       string
		path       string
		body       map[string]string
		wantStatus int
		wantPrefix string
	}{
		{"job", "/api/v1/jobs/1/apply", map[string]string{"resume": "10 years of Go"}, http.StatusCreated, "app-"},
		{"job without resume", "/api/v1/jobs/1/apply", map[string]string{"name": "Asha"}, http.StatusBadRequest, ""},
		{"unknown job", "/api/v1/jobs/999/apply", map[string]string{"resume": "cv"}, http.StatusNotFound, ""},
		{"event", "/api/v1/events/1/register", map[string]string{"name": "Asha", "email": "asha@example.com"}, http.StatusCreated, "reg-"},
		{"event bad email", "/api/v1/events/1/register", map[string]string{"name": "Asha", "email": "nope"}, http.StatusBadRequest, ""},
		{"mentorship", "/api/v1/mentorships/1/apply", map[string]string{"name": "Asha", "email": "asha@example.com", "motivation": "grow"}, http.StatusCreated, "app-m-"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantPrefix != "" {
				assert.True(t, strings.HasPrefix(decode(t, rec)["id"].(string), tc.wantPrefix))
			}
		})
	}
}

func TestRouter_FavoritesAndFeedback(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{}))

	rec := do(t, h, http.MethodPost, "/api/v1/favorites/", map[string]string{"sessionId": "s1", "type": "job", "itemId": "2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/favorites/", map[string]string{"sessionId": "s1", "type": "job", "itemId": "999"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/favorites/", map[string]string{"sessionId": "s1", "type": "course", "itemId": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/favorites/?sessionId=s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["favorites"].([]interface{}), 1)

	rec = do(t, h, http.MethodDelete, "/api/v1/favorites/job/2?sessionId=s1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/v1/favorites/job/2?sessionId=s1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/feedback", map[string]interface{}{"sessionId": "s1", "rating": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/v1/feedback", map[string]interface{}{"sessionId": "s1", "rating": 5, "comment": "helpful"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["id"])
}

func TestRouter_WithoutStorage(t *testing.T) {
	h := NewRouter(newTestApp(t, nil, app.Options{WithoutStorage: true}))

	rec := do(t, h, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/api/v1/sessions/s1/history", "/api/v1/favorites/?sessionId=s1"} {
		rec = do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/chat/messages", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Auth(t *testing.T) {
	h := NewRouter(newTestApp(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKeys = []string{"secret"}
	}, app.Options{}))

	tests := []struct {
		name       string
		headers    []string
		wantStatus int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"wrong key", []string{"X-API-Key", "nope"}, http.StatusUnauthorized},
		{"bad scheme", []string{"Authorization", "Basic secret"}, http.StatusUnauthorized},
		{"header key", []string{"X-API-Key", "secret"}, http.StatusOK},
		{"bearer", []string{"Authorization", "Bearer secret"}, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/v1/jobs/", nil, tc.headers...)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)
}

func TestRouter_ConnectRPC(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestApp(t, nil, app.Options{})))
	defer srv.Close()

	client := rpc.NewClient(srv.Client(), srv.URL)
	resp, err := client.Chat(context.Background(), &rpc.ChatRequest{SessionID: "rpc", Text: "Find remote work in Bangalore"})
	require.NoError(t, err)
	assert.Equal(t, "rpc", resp.SessionID)
	assert.Equal(t, "job_search", string(resp.Intent))
	require.NotNil(t, resp.Attachment)
}
