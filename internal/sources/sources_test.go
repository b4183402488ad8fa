package sources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fixedSource struct {
	sourceType string
	items      []json.RawMessage
	err        error
}

func (s fixedSource) Type() string { return s.sourceType }

func (s fixedSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	return s.items, s.err
}

func TestManager_FetchByTypes(t *testing.T) {
	m := NewManager(
		fixedSource{sourceType: "weather", items: []json.RawMessage{json.RawMessage(`{"city":"Oslo"}`)}},
		fixedSource{sourceType: "news", items: []json.RawMessage{json.RawMessage(`{"title":"a"}`), json.RawMessage(`{"title":"b"}`)}},
	)

	out := m.FetchByTypes(context.Background(), []string{"weather", "news"}, Params{})
	if len(out["weather"]) != 1 {
		t.Errorf("Expected 1 weather item, got %d", len(out["weather"]))
	}
	if len(out["news"]) != 2 {
		t.Errorf("Expected 2 news items, got %d", len(out["news"]))
	}
}

func TestManager_FailingSourceSkipped(t *testing.T) {
	m := NewManager(
		fixedSource{sourceType: "weather", err: errors.New("upstream down")},
		fixedSource{sourceType: "news", items: []json.RawMessage{json.RawMessage(`{}`)}},
	)

	out := m.FetchByTypes(context.Background(), []string{"weather", "news", "market"}, Params{})
	if _, ok := out["weather"]; ok {
		t.Error("Failing source must contribute no entry")
	}
	if _, ok := out["market"]; ok {
		t.Error("Unregistered type must contribute no entry")
	}
	if len(out["news"]) != 1 {
		t.Errorf("Healthy source skipped: %v", out)
	}
}

func TestMockSources_ShapeMatchesExtraction(t *testing.T) {
	ctx := context.Background()
	params := Params{
		Cities:      []string{"Hamburg", "Munich"},
		Commodities: []string{"steel"},
		Routes:      []Route{{Origin: "Hamburg", Destination: "Munich"}},
		Keywords:    []string{"logistics"},
	}

	weather, err := MockWeatherSource{}.Fetch(ctx, params)
	if err != nil {
		t.Fatalf("Weather fetch failed: %v", err)
	}
	if len(weather) != 2 {
		t.Errorf("Expected one weather item per city, got %d", len(weather))
	}
	var w struct {
		City      string `json:"city"`
		Condition string `json:"condition"`
	}
	if err := json.Unmarshal(weather[0], &w); err != nil {
		t.Fatalf("Weather item not decodable: %v", err)
	}
	if w.City != "Hamburg" || w.Condition == "" {
		t.Errorf("Unexpected weather item: %+v", w)
	}

	shipping, err := MockShippingSource{}.Fetch(ctx, params)
	if err != nil {
		t.Fatalf("Shipping fetch failed: %v", err)
	}
	var s struct {
		Status    string `json:"status"`
		DelayDays int    `json:"delayDays"`
	}
	if err := json.Unmarshal(shipping[0], &s); err != nil {
		t.Fatalf("Shipping item not decodable: %v", err)
	}
	if s.Status != "normal" && s.Status != "disrupted" {
		t.Errorf("Unexpected shipping status %q", s.Status)
	}
	if s.Status == "normal" && s.DelayDays != 0 {
		t.Errorf("Normal route must have zero delay, got %d", s.DelayDays)
	}

	market, err := MockMarketSource{}.Fetch(ctx, params)
	if err != nil {
		t.Fatalf("Market fetch failed: %v", err)
	}
	var mkt struct {
		Commodity          string  `json:"commodity"`
		PriceChangePercent float64 `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(market[0], &mkt); err != nil {
		t.Fatalf("Market item not decodable: %v", err)
	}
	if mkt.Commodity != "steel" {
		t.Errorf("Expected requested commodity, got %q", mkt.Commodity)
	}
}

func TestDefaultManager_MockWhenNoBaseURL(t *testing.T) {
	m := DefaultManager("", nil)
	out := m.FetchByTypes(context.Background(), SourceTypes, Params{})
	for _, typ := range SourceTypes {
		if len(out[typ]) == 0 {
			t.Errorf("Mock source %s produced no items", typ)
		}
	}
}
