// Package weather enriches reminders with current conditions or a short-range
// forecast for a note's venue. Weather is supplementary context: every
// failure path degrades to "no weather" rather than failing the reminder.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"
)

const (
	DataBaseURL = "https://api.openweathermap.org/data/2.5"
	GeoBaseURL  = "https://api.openweathermap.org/geo/1.0"
)

// Snapshot holds the conditions attached to a single reminder. It is built
// per reminder and discarded after message composition.
type Snapshot struct {
	Location     string
	Venue        string
	Temperature  float64
	Humidity     int
	PrecipChance int
	Description  string
}

// Service looks up weather for a region and venue, daysAhead days from now.
type Service interface {
	Lookup(ctx context.Context, region, venue string, daysAhead int) (*Snapshot, error)
}

type openWeather struct {
	apiKey  string
	client  *http.Client
	dataURL string
	geoURL  string
}

// NewService creates an OpenWeatherMap-backed Service.
func NewService(apiKey string, client *http.Client) Service {
	return NewServiceWithBaseURLs(apiKey, client, DataBaseURL, GeoBaseURL)
}

// NewServiceWithBaseURLs creates a Service with custom endpoints (for testing).
func NewServiceWithBaseURLs(apiKey string, client *http.Client, dataURL, geoURL string) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &openWeather{
		apiKey:  apiKey,
		client:  client,
		dataURL: dataURL,
		geoURL:  geoURL,
	}
}

// Coordinates for regions the group plays in, used when geocoding fails or
// returns nothing for a venue.
var fallbackCoords = map[string][2]float64{
	"東京都":  {35.6762, 139.6503},
	"神奈川県": {35.4478, 139.6425},
	"千葉県":  {35.6074, 140.1065},
	"埼玉県":  {35.8617, 139.6455},
	"大阪府":  {34.6937, 135.5023},
	"愛知県":  {35.1815, 136.9066},
	"福岡県":  {33.5904, 130.4017},
	"北海道":  {43.0642, 141.3469},
}

// Lookup geocodes the venue (falling back to region coordinates) and fetches
// current conditions for daysAhead == 0 or a forecast entry near midday of
// the target date otherwise.
func (o *openWeather) Lookup(ctx context.Context, region, venue string, daysAhead int) (*Snapshot, error) {
	lat, lon := o.coordinates(ctx, region, venue)

	var (
		snap *Snapshot
		err  error
	)
	if daysAhead <= 0 {
		snap, err = o.current(ctx, lat, lon)
	} else {
		snap, err = o.forecast(ctx, lat, lon, daysAhead)
	}
	if err != nil {
		return nil, err
	}

	snap.Location = region
	snap.Venue = venue
	return snap, nil
}

type geoResult struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (o *openWeather) coordinates(ctx context.Context, region, venue string) (float64, float64) {
	q := region
	if venue != "" {
		q = venue + "," + region
	}

	params := url.Values{}
	params.Set("q", q+",JP")
	params.Set("limit", "1")
	params.Set("appid", o.apiKey)

	var results []geoResult
	if err := o.getJSON(ctx, fmt.Sprintf("%s/direct?%s", o.geoURL, params.Encode()), &results); err == nil && len(results) > 0 {
		return results[0].Lat, results[0].Lon
	}

	if c, ok := fallbackCoords[region]; ok {
		return c[0], c[1]
	}
	c := fallbackCoords["東京都"]
	return c[0], c[1]
}

type currentResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Rain map[string]float64 `json:"rain"`
}

func (o *openWeather) current(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	var cr currentResponse
	if err := o.getJSON(ctx, o.dataEndpoint("weather", lat, lon), &cr); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Temperature: cr.Main.Temp,
		Humidity:    cr.Main.Humidity,
	}
	if len(cr.Weather) > 0 {
		snap.Description = cr.Weather[0].Description
	}
	// The current-conditions endpoint has no probability; treat measured
	// rainfall as certainty.
	if cr.Rain["1h"] > 0 {
		snap.PrecipChance = 100
	}
	return snap, nil
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

func (o *openWeather) forecast(ctx context.Context, lat, lon float64, daysAhead int) (*Snapshot, error) {
	var fr forecastResponse
	if err := o.getJSON(ctx, o.dataEndpoint("forecast", lat, lon), &fr); err != nil {
		return nil, err
	}
	if len(fr.List) == 0 {
		return nil, fmt.Errorf("forecast returned no entries")
	}

	// Pick the 3-hour slot closest to midday of the target date.
	now := time.Now()
	target := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location()).AddDate(0, 0, daysAhead)

	best := 0
	bestDist := math.MaxFloat64
	for i, entry := range fr.List {
		dist := math.Abs(target.Sub(time.Unix(entry.Dt, 0)).Hours())
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}

	entry := fr.List[best]
	snap := &Snapshot{
		Temperature:  entry.Main.Temp,
		Humidity:     entry.Main.Humidity,
		PrecipChance: int(math.Round(entry.Pop * 100)),
	}
	if len(entry.Weather) > 0 {
		snap.Description = entry.Weather[0].Description
	}
	return snap, nil
}

func (o *openWeather) dataEndpoint(path string, lat, lon float64) string {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", lat))
	params.Set("lon", fmt.Sprintf("%.4f", lon))
	params.Set("appid", o.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "ja")
	return fmt.Sprintf("%s/%s?%s", o.dataURL, path, params.Encode())
}

func (o *openWeather) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating weather request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding weather response: %w", err)
	}
	return nil
}
