package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PetoAdam/homenavi/weather-widget/internal/location"
	"github.com/PetoAdam/homenavi/weather-widget/internal/models"
	"github.com/PetoAdam/homenavi/weather-widget/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL = "https://api.openweathermap.org"

const (
	endpointCurrent  = "current"
	endpointForecast = "forecast"
)

// FetchError is the single failure type of the client. Transport errors,
// non-2xx responses and malformed payloads all end up here.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

type httpStatusError struct {
	status int
	body   string
}

func (e httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("API returned status %d", e.status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.status, e.body)
}

// Client talks to the OpenWeatherMap current weather and 5 day / 3 hour
// forecast endpoints, always in metric units.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	tracer     oteltrace.Tracer
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		tracer:     otel.Tracer("weather-widget/owm"),
	}
}

type currentPayload struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []weatherPayload `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type weatherPayload struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type forecastPayload struct {
	List *[]struct {
		DT     int64  `json:"dt"`
		DTText string `json:"dt_txt"`
		Main   struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []weatherPayload `json:"weather"`
	} `json:"list"`
}

func (c *Client) FetchCurrent(ctx context.Context, q location.Query) (models.CurrentConditions, error) {
	var p currentPayload
	if err := c.fetchJSON(ctx, endpointCurrent, "/data/2.5/weather", q, &p); err != nil {
		return models.CurrentConditions{}, &FetchError{Endpoint: endpointCurrent, Err: err}
	}
	if p.Main == nil || len(p.Weather) == 0 {
		return models.CurrentConditions{}, &FetchError{Endpoint: endpointCurrent, Err: errors.New("unexpected payload: missing main or weather")}
	}

	w := p.Weather[0]
	return models.CurrentConditions{
		Name:        p.Name,
		Country:     p.Sys.Country,
		TempC:       p.Main.Temp,
		Summary:     w.Main,
		Description: w.Description,
		Icon:        w.Icon,
		Humidity:    p.Main.Humidity,
		WindSpeed:   p.Wind.Speed,
	}, nil
}

func (c *Client) FetchForecast(ctx context.Context, q location.Query) ([]models.RawForecastEntry, error) {
	var p forecastPayload
	if err := c.fetchJSON(ctx, endpointForecast, "/data/2.5/forecast", q, &p); err != nil {
		return nil, &FetchError{Endpoint: endpointForecast, Err: err}
	}
	if p.List == nil {
		return nil, &FetchError{Endpoint: endpointForecast, Err: errors.New("unexpected payload: missing list")}
	}

	entries := make([]models.RawForecastEntry, 0, len(*p.List))
	for i, item := range *p.List {
		if len(item.Weather) == 0 {
			return nil, &FetchError{Endpoint: endpointForecast, Err: fmt.Errorf("unexpected payload: list[%d] has no weather", i)}
		}
		w := item.Weather[0]
		entries = append(entries, models.RawForecastEntry{
			DT:          item.DT,
			DTText:      item.DTText,
			TempC:       item.Main.Temp,
			Summary:     w.Main,
			Description: w.Description,
			Icon:        w.Icon,
		})
	}
	return entries, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint, path string, q location.Query, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "owm "+endpoint, oteltrace.WithSpanKind(oteltrace.SpanKindInternal))
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		observability.ObserveUpstream(endpoint, status, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.apiKey == "" {
		return errors.New("no API key configured")
	}

	params := url.Values{}
	params.Set("q", q.String())
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	span.SetAttributes(
		attribute.String("owm.endpoint", endpoint),
		attribute.Int("http.status_code", status),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

