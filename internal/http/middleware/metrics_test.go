package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetrics_CountsRequestsAndSPCalls(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/tracking/:sttNumber", func(c *gin.Context) {
		ObserveSPCall("sp_tracking_detail_json", "ok")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tracking/STT1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	// The path label is the registered route, not the raw URL.
	if !strings.Contains(body, `path="/api/tracking/:sttNumber"`) {
		t.Fatalf("missing route-label request counter:\n%s", body)
	}
	if strings.Contains(body, `path="/api/tracking/STT1"`) {
		t.Fatal("raw URL leaked into metric labels")
	}
	if !strings.Contains(body, `sp_calls_total{outcome="ok",proc="sp_tracking_detail_json"}`) {
		t.Fatalf("missing sp call counter:\n%s", body)
	}
}
