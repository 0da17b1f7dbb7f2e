package owm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const testAPIKey = "test-key"

const currentJSON = `{
	"name": "Paris",
	"sys": {"country": "FR"},
	"main": {"temp": 12.4, "humidity": 81},
	"weather": [{"main": "Clouds", "description": "broken clouds", "icon": "04d"}],
	"wind": {"speed": 4.1}
}`

const forecastJSON = `{
	"list": [
		{"dt": 1704067200, "dt_txt": "2024-01-01 00:00:00", "main": {"temp": 5.1}, "weather": [{"main": "Clear", "description": "clear sky", "icon": "01n"}]},
		{"dt": 1704078000, "dt_txt": "2024-01-01 03:00:00", "main": {"temp": 4.2}, "weather": [{"main": "Clouds", "description": "few clouds", "icon": "02n"}]}
	]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(testAPIKey, srv.URL)
}

func TestFetchCurrentSuccess(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("q"); got != "Paris" {
			t.Errorf("expected q=Paris, got %s", got)
		}
		if got := q.Get("appid"); got != testAPIKey {
			t.Errorf("expected appid=%s, got %s", testAPIKey, got)
		}
		if got := q.Get("units"); got != "metric" {
			t.Errorf("expected units=metric, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentJSON))
	})

	got, err := c.FetchCurrent(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Paris" || got.Country != "FR" {
		t.Errorf("unexpected place: %+v", got)
	}
	if got.TempC != 12.4 || got.Humidity != 81 || got.WindSpeed != 4.1 {
		t.Errorf("unexpected readings: %+v", got)
	}
	if got.Summary != "Clouds" || got.Description != "broken clouds" || got.Icon != "04d" {
		t.Errorf("unexpected condition: %+v", got)
	}
}

func TestFetchCurrentNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := c.FetchCurrent(context.Background(), "Zzzzznotacity")
	if !IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	var se httpStatusError
	if !errors.As(err, &se) || se.status != http.StatusNotFound {
		t.Fatalf("expected wrapped 404, got %v", err)
	}
}

func TestFetchCurrentUnexpectedShape(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Paris","main":{"temp":1},"weather":[]}`))
	})
	if _, err := c.FetchCurrent(context.Background(), "Paris"); !IsFetchError(err) {
		t.Fatalf("expected FetchError for empty weather array, got %v", err)
	}
}

func TestFetchCurrentBadJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	if _, err := c.FetchCurrent(context.Background(), "Paris"); !IsFetchError(err) {
		t.Fatalf("expected FetchError for bad json, got %v", err)
	}
}

func TestFetchCurrentNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := New(testAPIKey, url).FetchCurrent(context.Background(), "Paris"); !IsFetchError(err) {
		t.Fatalf("expected FetchError for closed server, got %v", err)
	}
}

func TestFetchWithoutAPIKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	if _, err := New("", srv.URL).FetchCurrent(context.Background(), "Paris"); !IsFetchError(err) {
		t.Fatalf("expected FetchError without api key, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no request without api key, got %d", calls)
	}
}

func TestFetchForecastSuccess(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/forecast" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Paris" {
			t.Errorf("expected q=Paris, got %s", got)
		}
		_, _ = w.Write([]byte(forecastJSON))
	})

	got, err := c.FetchForecast(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].DTText != "2024-01-01 00:00:00" || got[0].TempC != 5.1 || got[0].Icon != "01n" || got[0].Summary != "Clear" {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
	if got[1].DT != 1704078000 {
		t.Errorf("unexpected dt: %d", got[1].DT)
	}
}

func TestFetchForecastMissingList(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod":"200"}`))
	})
	if _, err := c.FetchForecast(context.Background(), "Paris"); !IsFetchError(err) {
		t.Fatalf("expected FetchError for missing list, got %v", err)
	}
}

func TestFetchForecastServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.FetchForecast(context.Background(), "Paris")
	if !IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Endpoint != endpointForecast {
		t.Fatalf("expected forecast endpoint, got %s", fe.Endpoint)
	}
}

func TestFetchPropagatesTraceContext(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	var traceparent string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(currentJSON))
	})

	if _, err := c.FetchCurrent(context.Background(), "Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if traceparent == "" {
		t.Fatal("expected traceparent header on upstream request")
	}
}
