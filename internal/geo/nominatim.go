// Package geo resolves coordinates to a human-readable place via the
// Nominatim reverse-geocoding API. Lookups are best effort only: any failure
// yields placeholder values, never an error, because location enrichment must
// not affect the request that triggered it.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Location is a resolved place. Unresolvable fields hold "-".
type Location struct {
	CityName     string
	LastLocation string
	Region       string
}

// placeholder is returned whenever the lookup fails.
var placeholder = Location{CityName: "-", LastLocation: "-", Region: "-"}

// Geocoder performs reverse lookups against a Nominatim endpoint.
type Geocoder struct {
	URL       string
	UserAgent string // Nominatim rejects requests without one
	Client    *http.Client
	Log       zerolog.Logger
}

// NewGeocoder builds a Geocoder with a bounded-timeout HTTP client.
func NewGeocoder(endpoint, userAgent string, timeout time.Duration, log zerolog.Logger) *Geocoder {
	return &Geocoder{
		URL:       endpoint,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
		Log:       log,
	}
}

// Reverse resolves latitude/longitude to a Location. Never fails: on any
// error the placeholder Location is returned.
func (g *Geocoder) Reverse(ctx context.Context, latitude, longitude float64) Location {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", latitude))
	q.Set("lon", fmt.Sprintf("%f", longitude))
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL+"?"+q.Encode(), nil)
	if err != nil {
		g.Log.Error().Err(err).Msg("geocode: request")
		return placeholder
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		g.Log.Error().Err(err).Msg("geocode: lookup failed")
		return placeholder
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.Log.Error().Int("status", resp.StatusCode).Msg("geocode: lookup failed")
		return placeholder
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			City         string `json:"city"`
			Town         string `json:"town"`
			Municipality string `json:"municipality"`
			County       string `json:"county"`
			State        string `json:"state"`
			Region       string `json:"region"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		g.Log.Error().Err(err).Msg("geocode: decode")
		return placeholder
	}

	loc := Location{
		CityName:     firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Municipality, body.Address.County, body.Address.State, "-"),
		LastLocation: firstNonEmpty(body.DisplayName, "-"),
		Region:       firstNonEmpty(body.Address.State, body.Address.Region, "-"),
	}
	return loc
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
