package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/kims-booking/internal/catalog"
)

// ErrMatrixUnavailable is returned when no API key is configured.
var ErrMatrixUnavailable = errors.New("geo: distance matrix not configured")

const defaultMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// Measure is a text/value pair as reported by the Distance Matrix API.
type Measure struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// Element is one origin/destination result.
type Element struct {
	Status   string  `json:"status"`
	Distance Measure `json:"distance"`
	Duration Measure `json:"duration"`
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []Element `json:"elements"`
	} `json:"rows"`
}

// DistanceMatrixClient calls the Google Distance Matrix JSON API for driving
// distances.
type DistanceMatrixClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// DistanceMatrixOption customizes the client.
type DistanceMatrixOption func(*DistanceMatrixClient)

// WithMatrixBaseURL points the client at a different endpoint.
func WithMatrixBaseURL(u string) DistanceMatrixOption {
	return func(c *DistanceMatrixClient) {
		if strings.TrimSpace(u) != "" {
			c.baseURL = u
		}
	}
}

// WithMatrixHTTPClient overrides the HTTP client.
func WithMatrixHTTPClient(h *http.Client) DistanceMatrixOption {
	return func(c *DistanceMatrixClient) {
		if h != nil {
			c.http = h
		}
	}
}

func NewDistanceMatrixClient(apiKey string, timeout time.Duration, opts ...DistanceMatrixOption) *DistanceMatrixClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &DistanceMatrixClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultMatrixURL,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Measure returns one element per destination, in destination order.
func (c *DistanceMatrixClient) Measure(ctx context.Context, origin catalog.Coordinates, destinations []catalog.Coordinates) ([]Element, error) {
	if c == nil || c.apiKey == "" {
		return nil, ErrMatrixUnavailable
	}
	dests := make([]string, len(destinations))
	for i, d := range destinations {
		dests[i] = formatCoordinates(d)
	}
	q := url.Values{}
	q.Set("origins", formatCoordinates(origin))
	q.Set("destinations", strings.Join(dests, "|"))
	q.Set("mode", "driving")
	q.Set("units", "metric")
	q.Set("avoid", "tolls")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build distance matrix request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: distance matrix request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: distance matrix returned status %d", resp.StatusCode)
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geo: decode distance matrix: %w", err)
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("geo: distance matrix status %s: %s", body.Status, body.ErrorMessage)
	}
	out := make([]Element, len(destinations))
	if len(body.Rows) > 0 {
		copy(out, body.Rows[0].Elements)
	}
	return out, nil
}

func formatCoordinates(c catalog.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
