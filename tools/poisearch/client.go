// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package poisearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripwise/platform/shared/types"
)

const defaultWikipediaBaseURL = "https://en.wikipedia.org/w/api.php"

// Client queries the Wikipedia action API for coordinates, nearby pages and
// intro extracts. The base URL is injectable for tests.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Wikipedia API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Wikipedia API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultWikipediaBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wikiPage is one page entry in an action API response.
type wikiPage struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Coordinates []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
}

// wikiResponse covers the query shapes this client uses.
type wikiResponse struct {
	Query struct {
		Pages     map[string]wikiPage `json:"pages"`
		Geosearch []struct {
			Title string  `json:"title"`
			Lat   float64 `json:"lat"`
			Lon   float64 `json:"lon"`
		} `json:"geosearch"`
	} `json:"query"`
}

func (c *Client) get(ctx context.Context, params url.Values) (*wikiResponse, error) {
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create wikipedia request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia request failed with status %d", resp.StatusCode)
	}

	var parsed wikiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode wikipedia response: %w", err)
	}
	return &parsed, nil
}

// ResolveCity returns the coordinates of the city's Wikipedia page. A direct
// title lookup is tried first, then a full-text search fallback for cities
// whose article title differs from the common name.
func (c *Client) ResolveCity(ctx context.Context, city string) (types.GeoPoint, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "coordinates")
	params.Set("titles", city)
	params.Set("redirects", "1")

	resp, err := c.get(ctx, params)
	if err != nil {
		return types.GeoPoint{}, err
	}
	if pt, ok := firstCoordinate(resp); ok {
		return pt, nil
	}

	fallback := url.Values{}
	fallback.Set("action", "query")
	fallback.Set("generator", "search")
	fallback.Set("gsrsearch", city)
	fallback.Set("gsrlimit", "1")
	fallback.Set("prop", "coordinates")

	resp, err = c.get(ctx, fallback)
	if err != nil {
		return types.GeoPoint{}, err
	}
	if pt, ok := firstCoordinate(resp); ok {
		return pt, nil
	}

	return types.GeoPoint{}, fmt.Errorf("could not resolve coordinates for city %q", city)
}

func firstCoordinate(resp *wikiResponse) (types.GeoPoint, bool) {
	for _, p := range resp.Query.Pages {
		if len(p.Coordinates) > 0 {
			return types.GeoPoint{Lat: p.Coordinates[0].Lat, Lng: p.Coordinates[0].Lon}, true
		}
	}
	return types.GeoPoint{}, false
}

// rawPlace is a discovered page before filtering and normalization.
type rawPlace struct {
	Name        string
	Location    types.GeoPoint
	Description string
	Type        string
}

// Geosearch lists pages near the given point, tagged as generic landmarks.
func (c *Client) Geosearch(ctx context.Context, center types.GeoPoint, radiusM, limit int) ([]rawPlace, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "geosearch")
	params.Set("gscoord", fmt.Sprintf("%f|%f", center.Lat, center.Lng))
	params.Set("gsradius", fmt.Sprintf("%d", radiusM))
	params.Set("gslimit", fmt.Sprintf("%d", limit))

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	places := make([]rawPlace, 0, len(resp.Query.Geosearch))
	for _, g := range resp.Query.Geosearch {
		places = append(places, rawPlace{
			Name:     g.Title,
			Location: types.GeoPoint{Lat: g.Lat, Lng: g.Lon},
			Type:     "landmark",
		})
	}
	return places, nil
}

// CategorySearch runs a full-text search for "<category> in <city>" and
// returns pages that carry coordinates, tagged with the category.
func (c *Client) CategorySearch(ctx context.Context, category, city string, limit int) ([]rawPlace, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrsearch", category+" in "+city)
	params.Set("gsrlimit", fmt.Sprintf("%d", limit))
	params.Set("prop", "coordinates|extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exchars", "300")

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var places []rawPlace
	for _, p := range resp.Query.Pages {
		if len(p.Coordinates) == 0 {
			continue
		}
		places = append(places, rawPlace{
			Name:        p.Title,
			Location:    types.GeoPoint{Lat: p.Coordinates[0].Lat, Lng: p.Coordinates[0].Lon},
			Description: p.Extract,
			Type:        strings.ToLower(category),
		})
	}
	return places, nil
}

// Extracts fetches intro text for up to 20 titles per request and returns a
// title-to-extract map.
func (c *Client) Extracts(ctx context.Context, titles []string) (map[string]string, error) {
	out := make(map[string]string, len(titles))
	for start := 0; start < len(titles); start += 20 {
		end := start + 20
		if end > len(titles) {
			end = len(titles)
		}

		params := url.Values{}
		params.Set("action", "query")
		params.Set("prop", "extracts")
		params.Set("exintro", "1")
		params.Set("explaintext", "1")
		params.Set("exchars", "300")
		params.Set("titles", strings.Join(titles[start:end], "|"))

		resp, err := c.get(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Query.Pages {
			if p.Extract != "" {
				out[p.Title] = p.Extract
			}
		}
	}
	return out, nil
}
