package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCode_AlwaysSevenChars(t *testing.T) {
	cases := []struct {
		status   int
		module   string
		specific string
		want     string
	}{
		{http.StatusOK, ModuleAuth, SpecificSuccess, "2000100"},
		{http.StatusCreated, ModuleCustomer, SpecificCreated, "2000201"},
		{http.StatusBadRequest, ModuleDriver, SpecificInvalid, "4000303"},
		{http.StatusUnauthorized, ModuleAuth, SpecificUnauthorized, "4000104"},
		{http.StatusNotFound, ModuleLoading, SpecificNotFound, "4000402"},
		{http.StatusTooManyRequests, ModuleAuth, SpecificError, "4200106"},
		{http.StatusInternalServerError, ModuleSystem, SpecificError, "5000006"},
	}
	for _, tc := range cases {
		got := Code(tc.status, tc.module, tc.specific)
		if got != tc.want {
			t.Errorf("Code(%d,%s,%s)=%q want %q", tc.status, tc.module, tc.specific, got, tc.want)
		}
		if len(got) != 7 {
			t.Errorf("Code(%d,%s,%s)=%q not 7 chars", tc.status, tc.module, tc.specific, got)
		}
	}
}

func TestOK_EnvelopeShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		OK(c, gin.H{"n": 1}, "Success", ModuleCustomer)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !env.Success || env.ResponseCode != "2000200" || env.ResponseMessage != "Success" || env.Data == nil {
		t.Fatalf("envelope: %+v", env)
	}
}

func TestBad_OmitsData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		NotFound(c, "Data tidak ditemukan", ModuleAgent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if _, present := body["data"]; present {
		t.Fatalf("failure body should omit data: %s", w.Body.String())
	}
	if string(body["responseCode"]) != `"4000502"` {
		t.Fatalf("responseCode=%s", body["responseCode"])
	}
}

func TestServerError_GenericMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ServerError(c, http.ErrBodyNotAllowed, "Internal server error", ModuleDriver)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("json: %v", err)
	}
	if env.ResponseCode != "5000306" || env.ResponseMessage != "Internal server error" {
		t.Fatalf("envelope: %+v", env)
	}
}
