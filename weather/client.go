package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// DefaultBaseURL points at the MSC GeoMet OGC API.
const DefaultBaseURL = "https://api.weather.gc.ca"

// DefaultTimeout bounds every GeoMet call.
const DefaultTimeout = 30 * time.Second

// Client reads climate collections from a GeoMet-style API.
type Client struct {
	base string
	http *http.Client
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a client with a bounded-timeout transport. An empty
// base uses the public GeoMet endpoint.
func NewClient(base string, opts ...ClientOption) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base: base,
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type featureCollection struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

// DailyObservations fetches climate-daily features for a station and date
// range (YYYY-MM-DD). Failures are coded external-call errors; callers on
// non-critical paths fall back to mock data.
func (c *Client) DailyObservations(ctx context.Context, stationID, from, to string) ([]Observation, error) {
	endpoint := fmt.Sprintf(
		"%s/collections/climate-daily/items?CLIMATE_IDENTIFIER=%s&datetime=%s/%s&f=json",
		c.base, url.QueryEscape(stationID), url.QueryEscape(from), url.QueryEscape(to),
	)
	var doc featureCollection
	if err := c.getJSON(ctx, endpoint, &doc); err != nil {
		return nil, err
	}

	observations := make([]Observation, 0, len(doc.Features))
	for _, f := range doc.Features {
		obs := Observation{StationID: stationID, Source: "geomet"}
		if date, ok := f.Properties["LOCAL_DATE"].(string); ok {
			obs.Date = date
		}
		obs.TemperatureMin = propertyFloat(f.Properties, "MIN_TEMPERATURE")
		obs.TemperatureMean = propertyFloat(f.Properties, "MEAN_TEMPERATURE")
		obs.TemperatureMax = propertyFloat(f.Properties, "MAX_TEMPERATURE")
		obs.Precipitation = propertyFloat(f.Properties, "TOTAL_PRECIPITATION")
		observations = append(observations, obs)
	}
	return observations, nil
}

// Stations fetches climate-stations features inside a bounding box.
func (c *Client) Stations(ctx context.Context, bbox string) ([]Station, error) {
	endpoint := fmt.Sprintf("%s/collections/climate-stations/items?bbox=%s&f=json", c.base, url.QueryEscape(bbox))
	var doc featureCollection
	if err := c.getJSON(ctx, endpoint, &doc); err != nil {
		return nil, err
	}

	stations := make([]Station, 0, len(doc.Features))
	for _, f := range doc.Features {
		var s Station
		if id, ok := f.Properties["CLIMATE_IDENTIFIER"].(string); ok {
			s.StationID = id
		}
		if name, ok := f.Properties["STATION_NAME"].(string); ok {
			s.Name = name
		}
		if v := propertyFloat(f.Properties, "LATITUDE"); v != nil {
			s.Latitude = *v
		}
		if v := propertyFloat(f.Properties, "LONGITUDE"); v != nil {
			s.Longitude = *v
		}
		if v := propertyFloat(f.Properties, "FIRST_DATE"); v != nil {
			s.FirstYear = int(*v)
		}
		stations = append(stations, s)
	}
	return stations, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return lifecycle.NewError(lifecycle.ErrExternalCall, "build geomet request", err, nil)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return lifecycle.NewError(lifecycle.ErrExternalCall, "geomet request failed", err, map[string]any{
			"endpoint": endpoint,
		})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return lifecycle.NewError(
			lifecycle.ErrExternalCall,
			fmt.Sprintf("geomet returned %d", resp.StatusCode),
			nil,
			map[string]any{"endpoint": endpoint, "http_status": resp.StatusCode},
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return lifecycle.NewError(lifecycle.ErrExternalCall, "decode geomet response", err, nil)
	}
	return nil
}

func propertyFloat(props map[string]any, key string) *float64 {
	if v, ok := props[key].(float64); ok {
		return &v
	}
	return nil
}
