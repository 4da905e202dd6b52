package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestReverse_FullAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("zoom") != "10" || q.Get("addressdetails") != "1" {
			t.Errorf("query: %v", q)
		}
		if r.Header.Get("User-Agent") != "AML-API/1.0" {
			t.Errorf("user agent: %q", r.Header.Get("User-Agent"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"display_name": "Jakarta, Indonesia",
			"address": map[string]string{
				"city":  "Jakarta",
				"state": "DKI Jakarta",
			},
		})
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "AML-API/1.0", time.Second, zerolog.Nop())
	loc := g.Reverse(context.Background(), -6.2, 106.8)

	if loc.CityName != "Jakarta" || loc.LastLocation != "Jakarta, Indonesia" || loc.Region != "DKI Jakarta" {
		t.Fatalf("location: %+v", loc)
	}
}

func TestReverse_CityFallbackChain(t *testing.T) {
	cases := []struct {
		name    string
		address map[string]string
		want    string
	}{
		{"town", map[string]string{"town": "Depok", "state": "Jawa Barat"}, "Depok"},
		{"municipality", map[string]string{"municipality": "Sleman"}, "Sleman"},
		{"county", map[string]string{"county": "Badung"}, "Badung"},
		{"state only", map[string]string{"state": "Bali"}, "Bali"},
		{"nothing", map[string]string{}, "-"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"address": tc.address})
			}))
			defer srv.Close()

			g := NewGeocoder(srv.URL, "ua", time.Second, zerolog.Nop())
			if loc := g.Reverse(context.Background(), 0, 0); loc.CityName != tc.want {
				t.Fatalf("city=%q want %q", loc.CityName, tc.want)
			}
		})
	}
}

func TestReverse_FailuresYieldPlaceholders(t *testing.T) {
	// Non-200 status
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	g := NewGeocoder(srv.URL, "ua", time.Second, zerolog.Nop())
	if loc := g.Reverse(context.Background(), 0, 0); loc != placeholder {
		t.Fatalf("status failure: %+v", loc)
	}
	srv.Close()

	// Unreachable endpoint
	g = NewGeocoder("http://127.0.0.1:1", "ua", 100*time.Millisecond, zerolog.Nop())
	if loc := g.Reverse(context.Background(), 0, 0); loc != placeholder {
		t.Fatalf("network failure: %+v", loc)
	}
}
