package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/auth"
	"github.com/aml-logistics/aml-api/internal/config"
	"github.com/aml-logistics/aml-api/internal/geo"
	"github.com/aml-logistics/aml-api/internal/http/handlers"
	"github.com/aml-logistics/aml-api/internal/sp"
	"github.com/aml-logistics/aml-api/internal/upload"
)

// stubCaller scripts one gateway outcome and records whether it was reached.
type stubCaller struct {
	res    sp.Result
	called bool
}

func (s *stubCaller) Call(ctx context.Context, proc string, args ...any) (sp.Result, error) {
	s.called = true
	return s.res, nil
}

type stubNotifier struct{}

func (stubNotifier) NotifyUsers(ctx context.Context, userIDs []string, title, body string, data map[string]any) {
}

type stubDrivers struct{}

func (stubDrivers) DriverEmails(ctx context.Context) ([]string, error) { return nil, nil }

type stubGeocoder struct{}

func (stubGeocoder) Reverse(ctx context.Context, lat, lng float64) geo.Location {
	return geo.Location{CityName: "-", LastLocation: "-", Region: "-"}
}

type stubPhotos struct{}

func (stubPhotos) SavePickupPhoto(string) (upload.Photo, error) { return upload.Photo{}, nil }
func (stubPhotos) Remove(upload.Photo) error                    { return nil }

func testRouter(t *testing.T, caller sp.Caller, cfg config.Config) (*gin.Engine, *auth.TokenProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenProvider("test-secret", time.Hour)
	h := handlers.New(caller, tokens, stubNotifier{}, stubDrivers{}, stubGeocoder{}, stubPhotos{},
		func(ctx context.Context) (time.Duration, error) { return time.Millisecond, nil }, "test")
	r := gin.New()
	RegisterRoutes(r, h, tokens, cfg)
	return r, tokens
}

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		UploadDir:     t.TempDir(),
		AuthRateRPS:   100,
		AuthRateBurst: 100,
	}
}

func TestRouter_NoRouteEnvelope(t *testing.T) {
	r, _ := testRouter(t, &stubCaller{}, baseConfig(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["responseCode"] != "4000002" || body["success"] != false {
		t.Fatalf("body: %v", body)
	}
}

func TestRouter_ProtectedRoutesRejectAnonymous(t *testing.T) {
	sc := &stubCaller{}
	r, _ := testRouter(t, sc, baseConfig(t))

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/customer/dashboard"},
		{http.MethodGet, "/api/driver/pickup"},
		{http.MethodGet, "/api/loading/orders"},
		{http.MethodGet, "/api/agent/monitoring"},
		{http.MethodGet, "/api/tracking/STT1"},
		{http.MethodPost, "/api/device/register"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status=%d", p.method, p.path, w.Code)
		}
	}
	if sc.called {
		t.Fatal("gateway reached without authentication")
	}
}

func TestRouter_AuthenticatedRequestFlows(t *testing.T) {
	sc := &stubCaller{res: sp.Result{Kind: sp.KindOK, Raw: json.RawMessage(`{"ok":true}`)}}
	r, tokens := testRouter(t, sc, baseConfig(t))

	raw, err := tokens.Mint(auth.Principal{Subject: "7", Email: "a@example.com", Role: "customer"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/customer/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !sc.called {
		t.Fatal("gateway never reached")
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r, _ := testRouter(t, &stubCaller{}, baseConfig(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	cfg := baseConfig(t)
	cfg.AuthRateRPS = 0 // no refill: only the burst passes
	cfg.AuthRateBurst = 2
	r, _ := testRouter(t, &stubCaller{res: sp.Result{Kind: sp.KindEmpty}}, cfg)

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = net.JoinHostPort("203.0.113.50", "40000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	first, second, third := do(), do(), do()
	if third != http.StatusTooManyRequests {
		t.Fatalf("codes: %d %d %d", first, second, third)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	r, _ := testRouter(t, &stubCaller{}, baseConfig(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
