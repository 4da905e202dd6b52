package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/auth"
)

func protectedRouter(t *testing.T, tokens *auth.TokenProvider) (*gin.Engine, *bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	r.GET("/secure", RequireAuth(tokens), func(c *gin.Context) {
		reached = true
		p, ok := PrincipalFrom(c)
		if !ok {
			t.Fatal("no principal behind RequireAuth")
		}
		c.JSON(http.StatusOK, gin.H{"sub": p.Subject})
	})
	return r, &reached
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	tokens := auth.NewTokenProvider("test", time.Hour)
	r, reached := protectedRouter(t, tokens)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secure", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	if *reached {
		t.Fatal("handler ran without a token")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["responseCode"] != "4000104" || body["responseMessage"] != "Missing bearer token" {
		t.Fatalf("body: %v", body)
	}
}

func TestRequireAuth_MalformedAndInvalid(t *testing.T) {
	tokens := auth.NewTokenProvider("test", time.Hour)
	r, reached := protectedRouter(t, tokens)

	for _, header := range []string{"Token abc", "Bearer", "Bearer ", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/secure", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%q: status=%d", header, w.Code)
		}
	}
	if *reached {
		t.Fatal("handler ran with a bad token")
	}
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	good := auth.NewTokenProvider("server-secret", time.Hour)
	other := auth.NewTokenProvider("attacker-secret", time.Hour)
	r, reached := protectedRouter(t, good)

	raw, err := other.Mint(auth.Principal{Subject: "1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("status=%d reached=%v", w.Code, *reached)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := auth.NewTokenProvider("test", time.Hour)
	r, reached := protectedRouter(t, tokens)

	raw, err := tokens.Mint(auth.Principal{Subject: "42", Email: "x@example.com", Role: "agent"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !*reached {
		t.Fatalf("status=%d reached=%v", w.Code, *reached)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["sub"] != "42" {
		t.Fatalf("body: %v", body)
	}
}
