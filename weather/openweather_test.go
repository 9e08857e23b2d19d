package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestService(t *testing.T, dataHandler, geoHandler http.HandlerFunc) Service {
	t.Helper()
	dataServer := httptest.NewServer(dataHandler)
	geoServer := httptest.NewServer(geoHandler)
	t.Cleanup(dataServer.Close)
	t.Cleanup(geoServer.Close)
	return NewServiceWithBaseURLs("test-key", nil, dataServer.URL, geoServer.URL)
}

func geocodeOK(lat, lon float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]float64{{"lat": lat, "lon": lon}})
	}
}

func TestLookupCurrent(t *testing.T) {
	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/weather" {
				t.Errorf("path = %q, want /weather for offset 0", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("appid") != "test-key" {
				t.Errorf("appid = %q", q.Get("appid"))
			}
			if q.Get("units") != "metric" || q.Get("lang") != "ja" {
				t.Errorf("units/lang = %q/%q", q.Get("units"), q.Get("lang"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"weather": []map[string]string{{"description": "晴れ"}},
				"main":    map[string]any{"temp": 22.5, "humidity": 55},
				"rain":    map[string]float64{"1h": 0.8},
			})
		},
		geocodeOK(35.67, 139.70),
	)

	snap, err := svc.Lookup(context.Background(), "東京都", "代々木公園", 0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if snap.Description != "晴れ" {
		t.Errorf("Description = %q", snap.Description)
	}
	if snap.Temperature != 22.5 {
		t.Errorf("Temperature = %v", snap.Temperature)
	}
	if snap.Humidity != 55 {
		t.Errorf("Humidity = %d", snap.Humidity)
	}
	if snap.PrecipChance != 100 {
		t.Errorf("PrecipChance = %d, want 100 for measured rainfall", snap.PrecipChance)
	}
	if snap.Location != "東京都" || snap.Venue != "代々木公園" {
		t.Errorf("Location/Venue = %q/%q", snap.Location, snap.Venue)
	}
}

func TestLookupForecast(t *testing.T) {
	// Two forecast slots: one near midday tomorrow, one further out. The
	// slot closest to midday of the target day must win.
	tomorrowNoon := time.Now().AddDate(0, 0, 1)
	tomorrowNoon = time.Date(tomorrowNoon.Year(), tomorrowNoon.Month(), tomorrowNoon.Day(), 12, 0, 0, 0, tomorrowNoon.Location())

	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/forecast" {
				t.Errorf("path = %q, want /forecast for offset > 0", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"list": []map[string]any{
					{
						"dt":      tomorrowNoon.Add(24 * time.Hour).Unix(),
						"main":    map[string]any{"temp": 10.0, "humidity": 40},
						"weather": []map[string]string{{"description": "曇り"}},
						"pop":     0.1,
					},
					{
						"dt":      tomorrowNoon.Unix(),
						"main":    map[string]any{"temp": 18.0, "humidity": 70},
						"weather": []map[string]string{{"description": "小雨"}},
						"pop":     0.65,
					},
				},
			})
		},
		geocodeOK(35.67, 139.70),
	)

	snap, err := svc.Lookup(context.Background(), "東京都", "代々木公園", 1)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if snap.Description != "小雨" {
		t.Errorf("Description = %q, want the slot nearest midday", snap.Description)
	}
	if snap.Temperature != 18.0 {
		t.Errorf("Temperature = %v", snap.Temperature)
	}
	if snap.PrecipChance != 65 {
		t.Errorf("PrecipChance = %d, want 65", snap.PrecipChance)
	}
}

func TestLookupGeocodeFallback(t *testing.T) {
	var dataQuery map[string]string

	svc := newTestService(t,
		func(w http.ResponseWriter, r *http.Request) {
			dataQuery = map[string]string{
				"lat": r.URL.Query().Get("lat"),
				"lon": r.URL.Query().Get("lon"),
			}
			json.NewEncoder(w).Encode(map[string]any{
				"weather": []map[string]string{{"description": "晴れ"}},
				"main":    map[string]any{"temp": 20.0, "humidity": 50},
			})
		},
		func(w http.ResponseWriter, r *http.Request) {
			// Geocoding finds nothing for this venue.
			json.NewEncoder(w).Encode([]any{})
		},
	)

	if _, err := svc.Lookup(context.Background(), "北海道", "謎の会場", 0); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	// Must fall back to the region's fixed coordinates.
	if dataQuery["lat"] != "43.0642" || dataQuery["lon"] != "141.3469" {
		t.Errorf("fell back to lat/lon %s/%s, want Sapporo coordinates", dataQuery["lat"], dataQuery["lon"])
	}
}

func TestLookupErrors(t *testing.T) {
	t.Run("data endpoint failure", func(t *testing.T) {
		svc := newTestService(t,
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			geocodeOK(35.0, 139.0),
		)
		if _, err := svc.Lookup(context.Background(), "東京都", "代々木公園", 0); err == nil {
			t.Fatal("expected error for 401 response")
		}
	})

	t.Run("empty forecast list", func(t *testing.T) {
		svc := newTestService(t,
			func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"list": []any{}})
			},
			geocodeOK(35.0, 139.0),
		)
		if _, err := svc.Lookup(context.Background(), "東京都", "代々木公園", 1); err == nil {
			t.Fatal("expected error for empty forecast")
		}
	})
}

// --- Enricher ---

type stubService struct {
	snap *Snapshot
	err  error

	gotRegion string
	gotVenue  string
	gotDays   int
}

func (s *stubService) Lookup(ctx context.Context, region, venue string, daysAhead int) (*Snapshot, error) {
	s.gotRegion, s.gotVenue, s.gotDays = region, venue, daysAhead
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func TestEnrich(t *testing.T) {
	content := "[ノート] 2025/10/27(月) 練習会\n場所：代々木公園"

	t.Run("success", func(t *testing.T) {
		stub := &stubService{snap: &Snapshot{Description: "晴れ", Temperature: 20}}
		e := NewEnricher(stub, time.Second)

		snap := e.Enrich(context.Background(), content, 1)
		if snap == nil {
			t.Fatal("Enrich = nil, want snapshot")
		}
		if stub.gotRegion != "東京都" || stub.gotVenue != "代々木公園" || stub.gotDays != 1 {
			t.Errorf("Lookup called with %q/%q/%d", stub.gotRegion, stub.gotVenue, stub.gotDays)
		}
	})

	t.Run("no venue yields nil", func(t *testing.T) {
		stub := &stubService{snap: &Snapshot{}}
		e := NewEnricher(stub, time.Second)

		if snap := e.Enrich(context.Background(), "場所の記載なし", 0); snap != nil {
			t.Errorf("Enrich = %+v, want nil without a venue", snap)
		}
		if stub.gotVenue != "" {
			t.Error("Lookup should not be called without a venue")
		}
	})

	t.Run("lookup error yields nil", func(t *testing.T) {
		stub := &stubService{err: errors.New("api down")}
		e := NewEnricher(stub, time.Second)

		if snap := e.Enrich(context.Background(), content, 2); snap != nil {
			t.Errorf("Enrich = %+v, want nil on lookup error", snap)
		}
	})
}
