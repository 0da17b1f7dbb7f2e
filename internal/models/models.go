package models

import "time"

// CurrentConditions is a snapshot reading for the searched place.
type CurrentConditions struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	TempC       float64 `json:"temp_c"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// RawForecastEntry is one 3-hour step of the upstream forecast list.
type RawForecastEntry struct {
	DT          int64   `json:"dt"`
	DTText      string  `json:"dt_txt"`
	TempC       float64 `json:"temp_c"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

type ForecastEntry struct {
	Timestamp string  `json:"timestamp"`
	TempC     float64 `json:"temp_c"`
	Summary   string  `json:"summary"`
	Icon      string  `json:"icon"`
	IconURL   string  `json:"icon_url,omitempty"`
}

type Theme string

const (
	ThemeSunny   Theme = "sunny"
	ThemeCloudy  Theme = "cloudy"
	ThemeRainy   Theme = "rainy"
	ThemeSnowy   Theme = "snowy"
	ThemeDefault Theme = "default"
)

// ChartSeries is the label/value pairs for the temperature trend chart.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Temps  []float64 `json:"temps"`
}

type State string

const (
	StateIdle    State = "idle"
	StateLoaded  State = "loaded"
	StateErrored State = "errored"
)

// View is the display state handed to the UI.
type View struct {
	State          State              `json:"state"`
	Query          string             `json:"query,omitempty"`
	Current        *CurrentConditions `json:"current"`
	CurrentIconURL string             `json:"current_icon_url,omitempty"`
	Forecast       []ForecastEntry    `json:"forecast"`
	Chart          ChartSeries        `json:"chart"`
	Theme          Theme              `json:"theme"`
	Error          string             `json:"error,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
