package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

type memStore struct {
	states map[string]models.ChatState
}

func newMemStore() *memStore {
	return &memStore{states: map[string]models.ChatState{}}
}

func (m *memStore) Load(_ context.Context, id string) (models.ChatState, error) {
	if state, ok := m.states[id]; ok {
		return state, nil
	}
	return models.NewChatState(id), nil
}

func (m *memStore) Save(_ context.Context, id string, state models.ChatState) error {
	m.states[id] = state
	return nil
}

func (m *memStore) List(_ context.Context) ([]models.ChatSummary, error) {
	var out []models.ChatSummary
	for id, state := range m.states {
		out = append(out, models.ChatSummary{ID: id, Title: models.TitleFor(state)})
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.states[id]; !ok {
		return false, nil
	}
	delete(m.states, id)
	return true, nil
}

type stubEngine struct {
	reply     string
	lastInput string
	lastState models.ChatState
	calls     int
}

func (s *stubEngine) Turn(_ context.Context, state models.ChatState, input string) models.ChatState {
	s.calls++
	s.lastInput = input
	s.lastState = state
	state = state.Append(models.Message{Role: models.RoleUser, Content: input})
	return state.Append(models.Message{Role: models.RoleAssistant, Content: s.reply})
}

func newTestServer(t *testing.T) (*echo.Echo, *memStore, *stubEngine) {
	t.Helper()
	e := newEcho()
	st := newMemStore()
	eng := &stubEngine{reply: "stub reply"}
	h := &ChatsHandler{Store: st, Engine: eng, UploadDir: t.TempDir()}
	h.Register(e.Group("/api/chats"))
	return e, st, eng
}

func TestCreateChat(t *testing.T) {
	e, st, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var sum models.ChatSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.ID == "" || sum.Title != "New Conversation" {
		t.Fatalf("summary = %+v", sum)
	}
	if _, ok := st.states[sum.ID]; !ok {
		t.Fatalf("chat not persisted")
	}
}

func TestMessageTurn(t *testing.T) {
	e, st, eng := newTestServer(t)

	body := strings.NewReader(`{"message": "I have a headache"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats/s1/message", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "stub reply" {
		t.Fatalf("response = %q", resp.Response)
	}
	if eng.lastInput != "I have a headache" {
		t.Fatalf("engine input = %q", eng.lastInput)
	}
	if eng.lastState.ImagePath != "" {
		t.Fatalf("text turn carried pending image: %q", eng.lastState.ImagePath)
	}
	saved := st.states["s1"]
	if len(saved.Messages) != 2 {
		t.Fatalf("saved messages = %d, want 2", len(saved.Messages))
	}
}

func TestMessageRequiresBody(t *testing.T) {
	e, _, eng := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chats/s1/message", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if eng.calls != 0 {
		t.Fatalf("engine calls = %d, want 0", eng.calls)
	}
}

func uploadRequest(t *testing.T, url, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("report_image", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if err := png.Encode(part, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestReportUploadRunsExtractionTurn(t *testing.T) {
	e, st, eng := newTestServer(t)

	req := uploadRequest(t, "/api/chats/s1/report", "lab_report.png")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if eng.lastInput != "Uploaded report: lab_report.png" {
		t.Fatalf("engine input = %q", eng.lastInput)
	}
	if eng.lastState.ImagePath == "" {
		t.Fatalf("upload turn missing pending image path")
	}
	if eng.lastState.ExtractedText != "" {
		t.Fatalf("stale extracted text: %q", eng.lastState.ExtractedText)
	}
	if _, ok := st.states["s1"]; !ok {
		t.Fatalf("state not saved")
	}
}

func TestReportUploadRejectsUnknownExtension(t *testing.T) {
	e, _, eng := newTestServer(t)

	req := uploadRequest(t, "/api/chats/s1/report", "report.pdf")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if eng.calls != 0 {
		t.Fatalf("engine calls = %d, want 0", eng.calls)
	}
}

func TestHistoryReturnsMessages(t *testing.T) {
	e, st, _ := newTestServer(t)

	state := models.NewChatState("s1").
		Append(models.Message{Role: models.RoleUser, Content: "hello"}).
		Append(models.Message{Role: models.RoleAssistant, Content: "hi"})
	st.states["s1"] = state

	req := httptest.NewRequest(http.MethodGet, "/api/chats/s1/history", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var msgs []models.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Content != "hi" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestDeleteChat(t *testing.T) {
	e, st, _ := newTestServer(t)
	st.states["gone"] = models.NewChatState("gone")

	req := httptest.NewRequest(http.MethodDelete, "/api/chats/gone", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/chats/gone", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestAuthMiddlewareGuardsAPI(t *testing.T) {
	secret := []byte("test-secret")
	e := newEcho()
	api := e.Group("/api")
	api.Use(withAuth(secret))
	h := &ChatsHandler{Store: newMemStore(), Engine: &stubEngine{reply: "ok"}, UploadDir: t.TempDir()}
	h.Register(api.Group("/chats"))

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}

	token, err := SignJWT("user-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body %s", rec.Code, rec.Body.String())
	}
}
