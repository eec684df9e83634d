// routing/osrm_client.go
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/gewnthar/verif-rotation/config"
	"github.com/gewnthar/verif-rotation/metrics"
	"github.com/gewnthar/verif-rotation/models"
)

// ErrGeometryMissing is wrapped by a RoutingFailure when the engine answered
// 200 without a usable first route geometry.
var ErrGeometryMissing = errors.New("OSRM geometry missing")

// RoutingFailure is returned by Resolve for every unsuccessful call.
// StatusCode is zero when no HTTP response was received.
type RoutingFailure struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *RoutingFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing failure: %s: %v", e.Reason, e.Err)
	}
	return "routing failure: " + e.Reason
}

func (e *RoutingFailure) Unwrap() error { return e.Err }

// Client calls the OSRM route service.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewClient builds a client for the engine at cfg.BaseURL. cfg.Timeout is the
// only bound on a call.
func NewClient(cfg config.RoutingConfig) *Client {
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    profile,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type osrmRoute struct {
	Geometry *geojson.Geometry `json:"geometry"`
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

// RouteURL is the request issued for a pair: full overview, GeoJSON geometry.
func (c *Client) RouteURL(from, to models.Coordinate) string {
	return fmt.Sprintf("%s/route/v1/%s/%s,%s;%s,%s?overview=full&geometries=geojson",
		c.baseURL, c.profile,
		formatCoord(from.Lon), formatCoord(from.Lat),
		formatCoord(to.Lon), formatCoord(to.Lat),
	)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Resolve asks the engine for a route between two points. It makes exactly
// one request; any failure is returned as a *RoutingFailure.
func (c *Client) Resolve(ctx context.Context, from, to models.Coordinate) (result models.RouteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRouting(start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RouteURL(from, to), nil)
	if err != nil {
		return models.RouteResult{}, &RoutingFailure{Reason: "invalid request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.RouteResult{}, &RoutingFailure{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.RouteResult{}, &RoutingFailure{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("OSRM HTTP %d", resp.StatusCode),
		}
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.RouteResult{}, &RoutingFailure{StatusCode: resp.StatusCode, Reason: "invalid response", Err: err}
	}

	if len(body.Routes) == 0 || body.Routes[0].Geometry == nil || body.Routes[0].Geometry.Coordinates == nil {
		return models.RouteResult{}, &RoutingFailure{StatusCode: resp.StatusCode, Reason: "no route", Err: ErrGeometryMissing}
	}

	route := body.Routes[0]
	return models.RouteResult{
		Geometry:        route.Geometry.Geometry(),
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
	}, nil
}
