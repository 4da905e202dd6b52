package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aml-logistics/aml-api/internal/sp"
)

func loginBody(t *testing.T, username, password string) *strings.Reader {
	t.Helper()
	b, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return strings.NewReader(string(b))
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	payload := `{"user":{"id":42,"username":"budi","email":"budi@example.com","name":"Budi","role":"driver","avatar":"a.png","password_hash":"` + string(hash) + `"}}`
	fc := &fakeCaller{res: sp.Result{Kind: sp.KindOK, Raw: json.RawMessage(payload)}}
	h, r := testHandlers(fc)
	r.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", loginBody(t, "budi", "rahasia1"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Token string         `json:"token"`
			User  map[string]any `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("json: %v", err)
	}
	if env.Data.Token == "" {
		t.Fatal("no token minted")
	}
	if _, leaked := env.Data.User["password_hash"]; leaked {
		t.Fatal("password hash leaked to client")
	}
	// Unknown fields from the procedure survive the round trip.
	if env.Data.User["avatar"] != "a.png" {
		t.Fatalf("user=%v", env.Data.User)
	}

	p, err := h.Tokens.Verify(env.Data.Token)
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	if p.Subject != "42" || p.Role != "driver" {
		t.Fatalf("principal: %+v", p)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("rahasia1"), bcrypt.MinCost)
	payload := `{"user":{"id":42,"username":"budi","password_hash":"` + string(hash) + `"}}`
	fc := &fakeCaller{res: sp.Result{Kind: sp.KindOK, Raw: json.RawMessage(payload)}}
	h, r := testHandlers(fc)
	r.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", loginBody(t, "budi", "salah123"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.ResponseMessage != "Username atau password salah" {
		t.Fatalf("message=%q", env.ResponseMessage)
	}
}

func TestLogin_UnknownUser_SameMessage(t *testing.T) {
	fc := &fakeCaller{res: sp.Result{Kind: sp.KindEmpty}}
	h, r := testHandlers(fc)
	r.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", loginBody(t, "ghost", "rahasia1"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Unknown user and wrong password are indistinguishable.
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.ResponseMessage != "Username atau password salah" {
		t.Fatalf("message=%q", env.ResponseMessage)
	}
}

func TestLogin_ShortPassword_RejectedBeforeGateway(t *testing.T) {
	fc := &fakeCaller{}
	h, r := testHandlers(fc)
	r.POST("/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", loginBody(t, "budi", "abc"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", w.Code)
	}
	if proc, _ := fc.called(); proc != "" {
		t.Fatal("gateway reached on invalid payload")
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	fc := &fakeCaller{res: sp.Result{Kind: sp.KindEmpty}}
	h, r := testHandlers(fc)
	r.POST("/forgot-password", h.ForgotPassword)

	req := httptest.NewRequest(http.MethodPost, "/forgot-password", strings.NewReader(`{"email":"ghost@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.ResponseMessage != "Email tidak ditemukan" {
		t.Fatalf("message=%q", env.ResponseMessage)
	}
}
