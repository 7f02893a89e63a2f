// Package places is a client for the Google Places Nearby Search API
// (legacy maps/api/place endpoints).
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/siteselect-cli/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// maxPages caps pagination; the API never returns more than 3 pages.
const maxPages = 3

// tokenDelay is how long the API needs before a next_page_token becomes
// valid.
const tokenDelay = 2 * time.Second

// Client performs Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbyRequest) (*NearbyResponse, error)
	NearbyAll(ctx context.Context, req NearbyRequest) ([]Place, error)
}

// NearbyRequest describes one nearby search.
type NearbyRequest struct {
	Lat       float64
	Lon       float64
	RadiusM   int
	Type      string
	Keyword   string
	PageToken string
}

// NearbyResponse is one page of nearby search results.
type NearbyResponse struct {
	Results       []Place `json:"results"`
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message"`
	NextPageToken string  `json:"next_page_token"`
}

// Place is one result row from the API.
type Place struct {
	Name             string   `json:"name"`
	PlaceID          string   `json:"place_id"`
	Geometry         Geometry `json:"geometry"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Vicinity         string   `json:"vicinity"`
	Types            []string `json:"types"`
}

// Geometry holds a place's location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is the API's coordinate pair. The longitude key is "lng".
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageDelay overrides the wait before using a next_page_token.
func WithPageDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.pageDelay = d
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	pageDelay time.Duration
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		pageDelay: tokenDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbyRequest) (*NearbyResponse, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("location", fmt.Sprintf("%f,%f", req.Lat, req.Lon))
	q.Set("radius", strconv.Itoa(req.RadiusM))
	if req.Type != "" {
		q.Set("type", req.Type)
	}
	if req.Keyword != "" {
		q.Set("keyword", req.Keyword)
	}
	if req.PageToken != "" {
		q.Set("pagetoken", req.PageToken)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/nearbysearch/json?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(err)
		}
		return nil, err
	}

	var result NearbyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	switch result.Status {
	case "OK", "ZERO_RESULTS":
		return &result, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		// Quota and server-side hiccups clear on their own.
		return nil, resilience.MarkTransient(
			eris.Errorf("places: api status %s: %s", result.Status, result.ErrorMessage))
	default:
		return nil, eris.Errorf("places: api status %s: %s", result.Status, result.ErrorMessage)
	}
}

// NearbyAll follows next_page_token until the results run out or the page
// cap is hit, waiting for each token to become valid.
func (c *httpClient) NearbyAll(ctx context.Context, req NearbyRequest) ([]Place, error) {
	var all []Place

	for page := 0; page < maxPages; page++ {
		resp, err := c.NearbySearch(ctx, req)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)

		if resp.NextPageToken == "" || page == maxPages-1 {
			break
		}
		req.PageToken = resp.NextPageToken

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "places: wait for page token")
		case <-time.After(c.pageDelay):
		}
	}

	return all, nil
}
