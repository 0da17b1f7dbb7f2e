package forecast

import (
	"fmt"
	"strings"

	"github.com/PetoAdam/homenavi/weather-widget/internal/models"
)

// midnight is matched against the API's dt_txt as plain text, so the result
// follows whatever timezone the API reports in.
const midnight = "00:00:00"

// Reduce keeps the midnight entries of a 3-hourly forecast, one per day, in
// input order.
func Reduce(raw []models.RawForecastEntry) []models.ForecastEntry {
	out := make([]models.ForecastEntry, 0, len(raw)/8+1)
	for _, e := range raw {
		if !strings.Contains(e.DTText, midnight) {
			continue
		}
		out = append(out, models.ForecastEntry{
			Timestamp: e.DTText,
			TempC:     e.TempC,
			Summary:   e.Summary,
			Icon:      e.Icon,
		})
	}
	return out
}

// DeriveTheme maps the current condition summary to a display theme.
// Rules are checked in order and the first match wins.
func DeriveTheme(current *models.CurrentConditions) models.Theme {
	if current == nil {
		return models.ThemeDefault
	}
	s := strings.ToLower(current.Summary)
	switch {
	case strings.Contains(s, "cloud"):
		return models.ThemeCloudy
	case strings.Contains(s, "rain"), strings.Contains(s, "drizzle"):
		return models.ThemeRainy
	case strings.Contains(s, "clear"):
		return models.ThemeSunny
	case strings.Contains(s, "snow"):
		return models.ThemeSnowy
	default:
		return models.ThemeDefault
	}
}

// Chart builds the temperature trend series. Labels are the date part of
// each timestamp.
func Chart(entries []models.ForecastEntry) models.ChartSeries {
	series := models.ChartSeries{
		Labels: make([]string, 0, len(entries)),
		Temps:  make([]float64, 0, len(entries)),
	}
	for _, e := range entries {
		label := e.Timestamp
		if i := strings.IndexByte(label, ' '); i > 0 {
			label = label[:i]
		}
		series.Labels = append(series.Labels, label)
		series.Temps = append(series.Temps, e.TempC)
	}
	return series
}

// IconURL returns the 2x icon asset for an OpenWeatherMap icon id.
func IconURL(base, icon string) string {
	if icon == "" || base == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s@2x.png", strings.TrimSuffix(base, "/"), icon)
}
