package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smukkama/riskwatch/internal/riskengine"
	"github.com/smukkama/riskwatch/pkg/config"
)

// LiveProvider fetches real weather for a city and date, selecting the
// current/forecast/history endpoint by how the date relates to today.
type LiveProvider interface {
	Fetch(ctx context.Context, city string, date time.Time) (riskengine.Reading, error)
}

// APIProvider is a LiveProvider over a weatherapi.com-compatible service
type APIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAPIProvider creates a live provider from the weather config
func NewAPIProvider(cfg config.WeatherConfig) *APIProvider {
	return &APIProvider{
		baseURL: strings.TrimRight(cfg.LiveBaseURL, "/"),
		apiKey:  cfg.LiveAPIKey,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// Fetch retrieves the reading for city on the given date
func (p *APIProvider) Fetch(ctx context.Context, city string, date time.Time) (riskengine.Reading, error) {
	today := time.Now().Truncate(24 * time.Hour)
	target := date.Truncate(24 * time.Hour)

	switch {
	case target.Equal(today):
		return p.fetchCurrent(ctx, city)
	case target.Before(today):
		return p.fetchHistory(ctx, city, date)
	default:
		return p.fetchForecast(ctx, city, date)
	}
}

func (p *APIProvider) fetchCurrent(ctx context.Context, city string) (riskengine.Reading, error) {
	params := url.Values{"key": {p.apiKey}, "q": {city}}

	var payload struct {
		Current currentBlock `json:"current"`
	}
	if err := p.getJSON(ctx, "/current.json", params, &payload); err != nil {
		return riskengine.Reading{}, err
	}

	return payload.Current.toReading(), nil
}

func (p *APIProvider) fetchForecast(ctx context.Context, city string, date time.Time) (riskengine.Reading, error) {
	params := url.Values{"key": {p.apiKey}, "q": {city}, "days": {"14"}}

	var payload forecastPayload
	if err := p.getJSON(ctx, "/forecast.json", params, &payload); err != nil {
		return riskengine.Reading{}, err
	}

	return payload.dayFor(date)
}

func (p *APIProvider) fetchHistory(ctx context.Context, city string, date time.Time) (riskengine.Reading, error) {
	params := url.Values{
		"key": {p.apiKey},
		"q":   {city},
		"dt":  {date.Format("2006-01-02")},
	}

	var payload forecastPayload
	if err := p.getJSON(ctx, "/history.json", params, &payload); err != nil {
		return riskengine.Reading{}, err
	}

	return payload.dayFor(date)
}

func (p *APIProvider) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather api error %d", resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

type currentBlock struct {
	TempC     float64 `json:"temp_c"`
	WindKph   float64 `json:"wind_kph"`
	PrecipMm  float64 `json:"precip_mm"`
	VisKm     float64 `json:"vis_km"`
	Humidity  int     `json:"humidity"`
	Condition struct {
		Text string `json:"text"`
	} `json:"condition"`
}

func (c currentBlock) toReading() riskengine.Reading {
	return riskengine.Reading{
		Condition: c.Condition.Text,
		TempC:     c.TempC,
		WindKph:   c.WindKph,
		PrecipMm:  c.PrecipMm,
		VisKm:     c.VisKm,
		Humidity:  c.Humidity,
	}
}

type forecastPayload struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				AvgTempC      float64 `json:"avgtemp_c"`
				MaxWindKph    float64 `json:"maxwind_kph"`
				TotalPrecipMm float64 `json:"totalprecip_mm"`
				AvgVisKm      float64 `json:"avgvis_km"`
				AvgHumidity   float64 `json:"avghumidity"`
				Condition     struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (f forecastPayload) dayFor(date time.Time) (riskengine.Reading, error) {
	target := date.Format("2006-01-02")
	for _, fd := range f.Forecast.ForecastDay {
		if fd.Date != target {
			continue
		}
		return riskengine.Reading{
			Condition: fd.Day.Condition.Text,
			TempC:     fd.Day.AvgTempC,
			WindKph:   fd.Day.MaxWindKph,
			PrecipMm:  fd.Day.TotalPrecipMm,
			VisKm:     fd.Day.AvgVisKm,
			Humidity:  int(fd.Day.AvgHumidity),
		}, nil
	}
	return riskengine.Reading{}, fmt.Errorf("no forecast entry for %s", target)
}
