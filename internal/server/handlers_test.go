package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/config"
	apperrors "github.com/WolfgangSpahn/interaktiv-backend/internal/errors"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		LogLevel:            "error",
		LogFormat:           "text",
		StaticDir:           "testdata",
		PingInterval:        time.Second,
		MaxConnections:      100,
		MaxConnectionsPerIP: 10,
		ConnectionRate:      1000,
		ConnectionBurst:     1000,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *announce.Announcer) {
	t.Helper()
	a := announce.New()
	t.Cleanup(a.Close)
	srv := NewServer(cfg, a, store.New(), clockwork.NewRealClock())
	return srv, a
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func observeEvent(t *testing.T, lst announce.Listener) announce.Event {
	t.Helper()
	select {
	case ev := <-lst.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return announce.Event{}
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","version":"dev"}`, rec.Body.String())
}

func TestHandleVersion(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"dev"`)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

func TestHandleCounts(t *testing.T) {
	srv, a := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodGet, "/counts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"listeners":0}`, rec.Body.String())

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()

	rec = doJSON(srv, http.MethodGet, "/counts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"listeners":1}`, rec.Body.String())
}

// unavailableBroadcaster fails every operation like a broken boundary channel.
type unavailableBroadcaster struct{}

func (unavailableBroadcaster) Publish(announce.Event) error {
	return apperrors.UnavailableError("announcer unreachable", nil)
}

func (unavailableBroadcaster) Listen() (announce.Listener, error) {
	return nil, apperrors.UnavailableError("announcer unreachable", nil)
}

func (unavailableBroadcaster) ListenerCount() (int, error) {
	return 0, apperrors.UnavailableError("announcer unreachable", nil)
}

func TestHandleCounts_UnavailableAnnouncer(t *testing.T) {
	srv := NewServer(testConfig(), unavailableBroadcaster{}, store.New(), clockwork.NewRealClock())

	rec := doJSON(srv, http.MethodGet, "/counts", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"unavailable"`)
}

func TestHandlePing(t *testing.T) {
	srv, a := newTestServer(t, testConfig())

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	observeEvent(t, lst) // START

	rec := doJSON(srv, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pinged\n", rec.Body.String())

	ev := observeEvent(t, lst)
	assert.Equal(t, announce.CategoryPing, ev.Category)
	assert.Equal(t, "Pinged", ev.Payload)
}

func TestHandlePostNickname(t *testing.T) {
	srv, a := newTestServer(t, testConfig())

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	observeEvent(t, lst) // START

	id := uuid.New()
	body := fmt.Sprintf(`{"user":"Hund","uuid":"%s"}`, id)
	rec := doJSON(srv, http.MethodPost, "/nickname", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Data received"}`, rec.Body.String())

	ev := observeEvent(t, lst)
	assert.Equal(t, "NICKNAME", ev.Category)
	assert.JSONEq(t, `{"nicknames":["Hund"]}`, ev.Payload)

	rec = doJSON(srv, http.MethodGet, "/nickname/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nickname":"Hund"}`, rec.Body.String())

	rec = doJSON(srv, http.MethodGet, "/nicknames", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nicknames":["Hund"]}`, rec.Body.String())
}

func TestHandlePostNickname_Validation(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	tests := []struct {
		name string
		body string
	}{
		{"missing user", fmt.Sprintf(`{"uuid":"%s"}`, uuid.New())},
		{"invalid uuid", `{"user":"Hund","uuid":"not-a-uuid"}`},
		{"not json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(srv, http.MethodPost, "/nickname", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"type":"validation"`)
		})
	}
}

func TestHandleGetNickname_UnknownUUID(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodGet, "/nickname/"+uuid.New().String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warning")
}

func TestHandlePostLikert(t *testing.T) {
	srv, a := newTestServer(t, testConfig())
	srv.store.SetNickname(uuid.New(), "Hund")

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	observeEvent(t, lst) // START

	rec := doJSON(srv, http.MethodPost, "/likert", `{"likert":"scale1","user":"Hund","value":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Data received for key scale1"}`, rec.Body.String())

	ev := observeEvent(t, lst)
	assert.Equal(t, "A-scale1", ev.Category)
	assert.JSONEq(t, `{"percentage":100}`, ev.Payload)

	rec = doJSON(srv, http.MethodGet, "/likert/scale1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"likert":100}`, rec.Body.String())

	rec = doJSON(srv, http.MethodGet, "/likerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"likert":{"scale1":{"Hund":"0"}}}`, rec.Body.String())
}

func TestHandlePostLikert_Validation(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	srv.store.SetNickname(uuid.New(), "Hund")

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"unknown user", `{"likert":"scale1","user":"Niemand","value":"0"}`, "unknown user can not vote"},
		{"invalid value", `{"likert":"scale1","user":"Hund","value":"7"}`, "likert value must be a score between 0 and 4"},
		{"missing fields", `{"likert":"scale1"}`, "likert, user and value are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(srv, http.MethodPost, "/likert", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestHandleGetLikert_UnknownScale(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodGet, "/likert/nope", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warning")
}

func TestHandlePostAnswer(t *testing.T) {
	srv, a := newTestServer(t, testConfig())
	srv.store.SetNickname(uuid.New(), "Hund")

	lst, err := a.Listen()
	require.NoError(t, err)
	defer lst.Close()
	observeEvent(t, lst) // START

	rec := doJSON(srv, http.MethodPost, "/answer", `{"answer":"42","qid":"q1","user":"Hund"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Data received"}`, rec.Body.String())

	ev := observeEvent(t, lst)
	assert.Equal(t, "A-q1", ev.Category)
	assert.JSONEq(t, `{"qid":"q1","answers":["42"]}`, ev.Payload)

	rec = doJSON(srv, http.MethodGet, "/answer/q1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answers":["42"]}`, rec.Body.String())

	rec = doJSON(srv, http.MethodGet, "/answers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answers":{"q1":["42"]}}`, rec.Body.String())
}

func TestHandlePostAnswer_Validation(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodPost, "/answer", `{"answer":"42","qid":"q1","user":"Niemand"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown user can not answer")

	rec = doJSON(srv, http.MethodPost, "/answer", `{"answer":"42"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "qid and user are required")
}

func TestHandleGetAnswer_UnknownQuestion(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := doJSON(srv, http.MethodGet, "/answer/nope", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warning")
}
