package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Mock feeds generate plausible payloads when no upstream endpoint is
// configured. Shapes match what the extraction fallback rules expect.

var (
	mockMu  sync.Mutex
	mockRng = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func mockIntn(n int) int {
	mockMu.Lock()
	defer mockMu.Unlock()
	return mockRng.Intn(n)
}

func mockFloat() float64 {
	mockMu.Lock()
	defer mockMu.Unlock()
	return mockRng.Float64()
}

func pick(options []string) string {
	return options[mockIntn(len(options))]
}

func marshalItems(items []any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encoding mock item: %w", err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// MockWeatherSource reports one current-conditions item per city
type MockWeatherSource struct{}

func (MockWeatherSource) Type() string { return "weather" }

func (MockWeatherSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	cities := params.Cities
	if len(cities) == 0 {
		cities = []string{"New York", "London", "Tokyo", "Mumbai", "Shanghai"}
	}
	conditions := []string{"Sunny", "Cloudy", "Rain", "Storm", "Fog", "Snow"}

	items := make([]any, 0, len(cities))
	for _, city := range cities {
		items = append(items, map[string]any{
			"city":      city,
			"country":   "",
			"condition": pick(conditions),
			"tempC":     float64(mockIntn(35)) - 5,
			"windKph":   float64(mockIntn(80)),
			"humidity":  40 + mockIntn(55),
		})
	}
	return marshalItems(items)
}

// MockNewsSource fabricates headlines from the requested keywords
type MockNewsSource struct{}

func (MockNewsSource) Type() string { return "news" }

func (MockNewsSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	keywords := params.Keywords
	if len(keywords) == 0 {
		keywords = []string{"supply chain", "manufacturing", "logistics"}
	}
	templates := []string{
		"%s disruption reported at major hub",
		"Port closure threatens %s shipments",
		"Analysts expect %s delay through next quarter",
		"%s sector stabilizes after strong demand",
		"New capacity eases pressure on %s networks",
	}

	items := make([]any, 0, len(keywords))
	for _, kw := range keywords {
		title := fmt.Sprintf(templates[mockIntn(len(templates))], kw)
		items = append(items, map[string]any{
			"title":       title,
			"description": fmt.Sprintf("Coverage of %s developments affecting procurement and logistics.", strings.ToLower(kw)),
			"source":      "Industry Wire",
			"publishedAt": time.Now().Add(-time.Duration(mockIntn(72)) * time.Hour).Format(time.RFC3339),
		})
	}
	return marshalItems(items)
}

// MockTrafficSource reports congestion per requested route
type MockTrafficSource struct{}

func (MockTrafficSource) Type() string { return "traffic" }

func (MockTrafficSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	routes := params.Routes
	if len(routes) == 0 {
		routes = []Route{{Origin: "New York", Destination: "Los Angeles"}}
	}
	levels := []string{"light", "moderate", "heavy", "severe"}

	items := make([]any, 0, len(routes))
	for _, route := range routes {
		level := pick(levels)
		delay := mockIntn(40)
		if level == "heavy" {
			delay = 45 + mockIntn(45)
		}
		if level == "severe" {
			delay = 75 + mockIntn(120)
		}
		items = append(items, map[string]any{
			"origin":          route.Origin,
			"destination":     route.Destination,
			"congestionLevel": level,
			"estimatedDelay":  delay,
			"incidents":       mockIntn(4),
		})
	}
	return marshalItems(items)
}

// MockMarketSource reports price movement per commodity
type MockMarketSource struct{}

func (MockMarketSource) Type() string { return "market" }

func (MockMarketSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	commodities := params.Commodities
	if len(commodities) == 0 {
		commodities = []string{"steel", "copper", "oil", "grain", "semiconductors"}
	}

	items := make([]any, 0, len(commodities))
	for _, commodity := range commodities {
		// Movements between -12% and +12%
		pct := (mockFloat() - 0.5) * 24
		base := 100 + float64(mockIntn(900))
		items = append(items, map[string]any{
			"commodity":          commodity,
			"price":              base,
			"priceChange":        base * pct / 100,
			"priceChangePercent": pct,
			"currency":           "USD",
		})
	}
	return marshalItems(items)
}

// MockShippingSource reports route status per requested lane
type MockShippingSource struct{}

func (MockShippingSource) Type() string { return "shipping" }

func (MockShippingSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	routes := params.Routes
	if len(routes) == 0 {
		routes = []Route{
			{Origin: "Shanghai", Destination: "Los Angeles"},
			{Origin: "Rotterdam", Destination: "Singapore"},
			{Origin: "Singapore", Destination: "Tokyo"},
		}
	}
	reasons := []string{"port_congestion", "weather", "labor_strike", "canal_delay", "vessel_shortage"}

	items := make([]any, 0, len(routes))
	for _, route := range routes {
		disrupted := mockFloat() > 0.5
		status := "normal"
		reason := ""
		delayDays := 0
		recovery := 0
		availability := "normal"
		port := "normal"
		if disrupted {
			status = "disrupted"
			reason = pick(reasons)
			delayDays = 1 + mockIntn(14)
			recovery = delayDays + mockIntn(8)
			availability = "low"
			port = "congested"
		}
		items = append(items, map[string]any{
			"origin":                route.Origin,
			"destination":           route.Destination,
			"route":                 fmt.Sprintf("%s -> %s", route.Origin, route.Destination),
			"status":                status,
			"delayDays":             delayDays,
			"disruptionReason":      reason,
			"vesselAvailability":    availability,
			"portConditions":        port,
			"estimatedRecoveryDays": recovery,
		})
	}
	return marshalItems(items)
}
