package session

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysxye29-beep/tracnghiem/internal/auth"
)

type httpHarness struct {
	mux   *http.ServeMux
	token string
}

func newHTTPHarness(t *testing.T) *httpHarness {
	t.Helper()
	gateway := NewGateway(NewMemoryStore(), zerolog.Nop())
	manager := NewManager(gateway, extractorWith(fourQuestions()...), stubExporter{}, ManagerOptions{
		TickInterval: time.Hour,
	}, zerolog.Nop())
	handlers := NewHTTPHandlers(manager, 1<<20, zerolog.Nop())

	tokens := auth.NewManager(auth.TokenConfig{Secret: []byte("test-secret")})
	token, _, err := tokens.GenerateGuestToken()
	require.NoError(t, err)

	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler { return tokens.Middleware(h) }
	mux.Handle("POST /v1/session/text", authed(handlers.IntakeText))
	mux.Handle("POST /v1/session/upload", authed(handlers.IntakeDocument))
	mux.Handle("POST /v1/session/start", authed(handlers.Start))
	mux.Handle("POST /v1/session/answer", authed(handlers.SelectAnswer))
	mux.Handle("POST /v1/session/submit", authed(handlers.Submit))
	mux.Handle("POST /v1/session/retry", authed(handlers.Retry))
	mux.Handle("GET /v1/session", authed(handlers.CurrentView))
	mux.Handle("GET /v1/session/export", authed(handlers.Export))
	mux.Handle("GET /v1/history", authed(handlers.ListHistory))
	mux.Handle("DELETE /v1/history/{id}", authed(handlers.DeleteHistory))

	return &httpHarness{mux: mux, token: token}
}

func (h *httpHarness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHTTP_RequiresAuth(t *testing.T) {
	h := newHTTPHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_FullFlow(t *testing.T) {
	h := newHTTPHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/session/text", map[string]string{"text": "source material"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	assert.Equal(t, StateConfig, view.State)
	assert.Equal(t, 4, view.PoolSize)

	rec = h.do(t, http.MethodPost, "/v1/session/start", map[string]interface{}{
		"question_count": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	assert.Equal(t, StateQuiz, view.State)

	rec = h.do(t, http.MethodPost, "/v1/session/answer", map[string]interface{}{
		"question_id": 1, "option_key": "A",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/v1/session/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	assert.Equal(t, StateResults, view.State)
	require.NotNil(t, view.Result)
	assert.Equal(t, 1, view.Result.Correct)

	rec = h.do(t, http.MethodGet, "/v1/session/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ket-qua-")
	assert.Equal(t, "document", rec.Body.String())

	rec = h.do(t, http.MethodGet, "/v1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Items []HistoryItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)

	rec = h.do(t, http.MethodDelete, "/v1/history/"+history.Items[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTP_ValidationErrors(t *testing.T) {
	h := newHTTPHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/session/text", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/session/start", map[string]interface{}{"question_count": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/session/answer", map[string]interface{}{"question_id": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/session/retry", map[string]string{"mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/v1/session/export", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHTTP_UploadDocument(t *testing.T) {
	h := newHTTPHarness(t)

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "questions.md")
	require.NoError(t, err)
	_, err = fw.Write([]byte("# Question bank"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/session/upload", body)
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	assert.Equal(t, StateConfig, view.State)
}
