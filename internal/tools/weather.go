package tools

import (
	"context"
	"encoding/json"
	"strings"
)

// Canned forecasts until a real weather provider is wired in. Keys are
// lowercase city names.
var cannedForecasts = map[string]string{
	"paris":     "Partly cloudy, 16°C, light west wind. Good conditions for an outdoor run.",
	"lyon":      "Sunny, 21°C, calm. Hydrate on longer efforts.",
	"marseille": "Clear, 24°C, mistral gusts up to 40 km/h. Prefer sheltered routes.",
	"london":    "Light rain, 12°C. A cap and a light shell are enough.",
	"berlin":    "Overcast, 14°C, dry. Neutral running conditions.",
}

// NewWeatherTool returns a stubbed weather forecast for a small set of
// cities. Unknown locations get an explicit "no forecast" answer so the
// model does not invent one.
func NewWeatherTool() Tool {
	return Tool{
		Name:        "get_weather_forecast",
		Description: "Get a short running-oriented weather forecast for a city.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name, e.g. Paris.",
				},
			},
			"required": []string{"location"},
		},
		Run: func(_ context.Context, args map[string]any) (string, error) {
			location, _ := args["location"].(string)
			forecast, ok := cannedForecasts[strings.ToLower(strings.TrimSpace(location))]
			if !ok {
				forecast = "No forecast available for " + location + "."
			}
			b, _ := json.Marshal(map[string]string{
				"location": location,
				"forecast": forecast,
			})
			return string(b), nil
		},
	}
}
