package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eokafor/go-pharmacy-backend/internal/services"
)

type fakeConversation struct {
	result *services.TurnResult
	err    error

	gotName, gotMessage, gotSession string
}

func (f *fakeConversation) HandleMessage(_ context.Context, name, message, sessionID string) (*services.TurnResult, error) {
	f.gotName, f.gotMessage, f.gotSession = name, message, sessionID
	return f.result, f.err
}

type fakeSessions struct {
	err   error
	ended string
}

func (f *fakeSessions) End(_ context.Context, id string) error {
	f.ended = id
	return f.err
}

func testRouter(conv Conversationalist, sess SessionEnder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &ChatHandler{Conversation: conv, Sessions: sess}
	r.POST("/chat", h.Chat)
	r.POST("/test", h.Test)
	r.POST("/sessions/:id/end", h.EndSession)
	r.GET("/health", Health)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_OK(t *testing.T) {
	conv := &fakeConversation{result: &services.TurnResult{Response: "hi Ada", SessionID: "sess-1"}}
	r := testRouter(conv, &fakeSessions{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"name":"Ada Obi","message":"hello","session_id":" sess-1 "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "hi Ada" || resp.SessionID != "sess-1" {
		t.Fatalf("resp = %+v", resp)
	}
	if conv.gotName != "Ada Obi" || conv.gotMessage != "hello" {
		t.Fatalf("service got %q, %q", conv.gotName, conv.gotMessage)
	}
	if conv.gotSession != "sess-1" {
		t.Fatalf("session id not trimmed: %q", conv.gotSession)
	}
}

func TestChat_MissingFieldsRejected(t *testing.T) {
	r := testRouter(&fakeConversation{}, &fakeSessions{})

	for _, body := range []string{
		`{}`,
		`{"name":"Ada Obi"}`,
		`{"message":"hello"}`,
		`not json`,
	} {
		w := doJSON(t, r, http.MethodPost, "/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestChat_ValidationErrorMapsTo422(t *testing.T) {
	conv := &fakeConversation{err: services.ErrEmptyMessage}
	r := testRouter(conv, &fakeSessions{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"name":"Ada Obi","message":"  "}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestChat_InternalErrorHidesDetails(t *testing.T) {
	conv := &fakeConversation{err: errors.New("pq: connection refused")}
	r := testRouter(conv, &fakeSessions{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"name":"Ada Obi","message":"hello"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Fatal("internal error detail leaked to the client")
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeInternal {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestEndSession_OK(t *testing.T) {
	sess := &fakeSessions{}
	r := testRouter(&fakeConversation{}, sess)

	w := doJSON(t, r, http.MethodPost, "/sessions/sess-1/end", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if sess.ended != "sess-1" {
		t.Fatalf("ended = %q", sess.ended)
	}
}

func TestEndSession_NotFound(t *testing.T) {
	sess := &fakeSessions{err: services.ErrSessionNotFound}
	r := testRouter(&fakeConversation{}, sess)

	w := doJSON(t, r, http.MethodPost, "/sessions/gone/end", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTestEndpoint_NoSideEffects(t *testing.T) {
	conv := &fakeConversation{}
	r := testRouter(conv, &fakeSessions{})

	w := doJSON(t, r, http.MethodPost, "/test", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if conv.gotName != "" {
		t.Fatal("smoke endpoint reached the conversation service")
	}
}

func TestHealth(t *testing.T) {
	r := testRouter(&fakeConversation{}, &fakeSessions{})
	w := doJSON(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
