package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/PetoAdam/homenavi/weather-widget/internal/forecast"
	"github.com/PetoAdam/homenavi/weather-widget/internal/location"
	"github.com/PetoAdam/homenavi/weather-widget/internal/models"
	"github.com/PetoAdam/homenavi/weather-widget/internal/observability"
)

// User-facing messages for the two failure kinds.
const (
	MsgEmptyQuery  = "Please enter a location"
	MsgFetchFailed = "Location not found or error fetching data"
)

// Fetcher is the upstream weather source. *owm.Client implements it.
type Fetcher interface {
	FetchCurrent(ctx context.Context, q location.Query) (models.CurrentConditions, error)
	FetchForecast(ctx context.Context, q location.Query) ([]models.RawForecastEntry, error)
}

// Widget holds the display state of one search box. It starts Idle and moves
// to Loaded or Errored after each search; there is no terminal state.
type Widget struct {
	fetcher  Fetcher
	iconBase string

	mu        sync.Mutex
	gen       uint64
	state     models.State
	query     string
	current   *models.CurrentConditions
	forecast  []models.ForecastEntry
	errMsg    string
	updatedAt time.Time
	subs      map[chan models.View]struct{}
	closed    bool
}

func New(fetcher Fetcher, iconBase string) *Widget {
	return &Widget{
		fetcher:  fetcher,
		iconBase: iconBase,
		state:    models.StateIdle,
		forecast: []models.ForecastEntry{},
		subs:     map[chan models.View]struct{}{},
	}
}

type result struct {
	current  models.CurrentConditions
	forecast []models.ForecastEntry
}

// Search runs one search and returns the view afterwards. When a newer
// search started while this one was in flight, this one's outcome is
// dropped and the returned view reflects whatever is current.
func (w *Widget) Search(ctx context.Context, raw string) models.View {
	gen := w.begin()

	q, err := location.Normalize(raw)
	if err != nil {
		slog.Debug("widget search rejected", "error", err)
		w.commit(gen, "", nil, err, observability.OutcomeEmptyQuery)
		return w.View()
	}

	res, err := w.pipeline(ctx, q)
	if err != nil {
		slog.Warn("widget search failed", "query", q.String(), "error", err)
		w.commit(gen, q.String(), nil, err, observability.OutcomeFetchFailed)
		return w.View()
	}

	w.commit(gen, q.String(), &res, nil, observability.OutcomeLoaded)
	return w.View()
}

// pipeline fetches current conditions, then the forecast. The forecast is
// never requested when the first step fails.
func (w *Widget) pipeline(ctx context.Context, q location.Query) (result, error) {
	current, err := w.fetcher.FetchCurrent(ctx, q)
	if err != nil {
		return result{}, err
	}
	raw, err := w.fetcher.FetchForecast(ctx, q)
	if err != nil {
		return result{}, err
	}
	return result{current: current, forecast: forecast.Reduce(raw)}, nil
}

func (w *Widget) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	return w.gen
}

// commit applies a finished search. Any failure clears both current
// conditions and forecast.
func (w *Widget) commit(gen uint64, query string, res *result, err error, outcome string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		observability.CountSearch(observability.OutcomeStale)
		return
	}
	observability.CountSearch(outcome)

	w.query = query
	w.updatedAt = time.Now().UTC()
	switch {
	case err == nil:
		cur := res.current
		w.state = models.StateLoaded
		w.current = &cur
		w.forecast = res.forecast
		w.errMsg = ""
	case errors.Is(err, location.ErrEmptyQuery):
		w.state = models.StateErrored
		w.current = nil
		w.forecast = []models.ForecastEntry{}
		w.errMsg = MsgEmptyQuery
	default:
		w.state = models.StateErrored
		w.current = nil
		w.forecast = []models.ForecastEntry{}
		w.errMsg = MsgFetchFailed
	}

	w.publishLocked(w.viewLocked())
}

func (w *Widget) View() models.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

func (w *Widget) viewLocked() models.View {
	entries := make([]models.ForecastEntry, len(w.forecast))
	for i, e := range w.forecast {
		e.IconURL = forecast.IconURL(w.iconBase, e.Icon)
		entries[i] = e
	}

	v := models.View{
		State:     w.state,
		Query:     w.query,
		Forecast:  entries,
		Chart:     forecast.Chart(entries),
		Theme:     forecast.DeriveTheme(w.current),
		Error:     w.errMsg,
		UpdatedAt: w.updatedAt,
	}
	if w.current != nil {
		cur := *w.current
		v.Current = &cur
		v.CurrentIconURL = forecast.IconURL(w.iconBase, cur.Icon)
	}
	return v
}

// Subscribe returns a channel that receives the view after every committed
// search. A slow reader only ever sees the latest view. The channel is
// closed by the returned cancel func or by Close.
func (w *Widget) Subscribe() (<-chan models.View, func()) {
	ch := make(chan models.View, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	w.subs[ch] = struct{}{}
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.subs[ch]; ok {
			delete(w.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Close ends every subscription. Searches still work afterwards but nothing
// is published.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for ch := range w.subs {
		delete(w.subs, ch)
		close(ch)
	}
}

func (w *Widget) publishLocked(v models.View) {
	for ch := range w.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// Drop the stale view still sitting in the buffer.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
