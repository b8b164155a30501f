// Package geocode resolves postal addresses to coordinates through an
// external geocoding HTTP API. The lookup is best-effort: callers treat any
// failure as "no coordinates", never as a fatal error.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/servista/servista/internal/model"
)

// Point is a resolved (latitude, longitude) pair.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Resolver looks up coordinates for an address. A (nil, nil) return means
// the address could not be resolved.
type Resolver interface {
	Resolve(ctx context.Context, addr model.Address) (*Point, error)
}

// Client resolves addresses against a MapQuest-compatible geocoding endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New constructs a geocoding client. baseURL is the API root, e.g.
// "http://www.mapquestapi.com".
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// response mirrors the subset of the geocoding payload we consume.
type response struct {
	Results []struct {
		Locations []struct {
			LatLng Point `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

// Resolve fetches the best match for the address. An empty address or an
// empty result set resolves to (nil, nil).
func (c *Client) Resolve(ctx context.Context, addr model.Address) (*Point, error) {
	location := Location(addr)
	if location == "" {
		return nil, nil
	}

	u, err := url.Parse(c.baseURL + "/geocoding/v1/address")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("maxResults", "1")
	q.Set("location", location)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(body.Results) == 0 || len(body.Results[0].Locations) == 0 {
		return nil, nil
	}
	p := body.Results[0].Locations[0].LatLng
	return &p, nil
}

// Location joins the non-empty address parts into a single lookup string,
// collapsing internal whitespace.
func Location(addr model.Address) string {
	var parts []string
	for _, p := range []string{addr.Country, addr.State, addr.City, addr.Street, addr.Zipcode} {
		if fields := strings.Fields(p); len(fields) > 0 {
			parts = append(parts, strings.Join(fields, " "))
		}
	}
	return strings.Join(parts, " ")
}
