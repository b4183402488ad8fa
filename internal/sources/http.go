package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// HTTPSource fetches one source type from an upstream data service.
// The endpoint is GET {base}/data-sources/{type} and must return a JSON
// array of items. Responses share the process-wide cached client.
type HTTPSource struct {
	sourceType string
	baseURL    string
	client     *CachedClient
}

// NewHTTPSource builds a source for the given type against the base URL
func NewHTTPSource(sourceType, baseURL string, client *CachedClient) *HTTPSource {
	return &HTTPSource{
		sourceType: sourceType,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     client,
	}
}

func (s *HTTPSource) Type() string { return s.sourceType }

func (s *HTTPSource) Fetch(ctx context.Context, params Params) ([]json.RawMessage, error) {
	query := url.Values{}
	if len(params.Cities) > 0 {
		query.Set("cities", strings.Join(params.Cities, ","))
	}
	if len(params.Commodities) > 0 {
		query.Set("commodities", strings.Join(params.Commodities, ","))
	}
	if len(params.Keywords) > 0 {
		query.Set("keywords", strings.Join(params.Keywords, ","))
	}
	for i, route := range params.Routes {
		query.Set("route"+strconv.Itoa(i), route.Origin+"|"+route.Destination)
	}

	endpoint := fmt.Sprintf("%s/data-sources/%s", s.baseURL, s.sourceType)
	status, body, err := s.client.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("data source %s returned status %d", s.sourceType, status)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding %s items: %w", s.sourceType, err)
	}
	return items, nil
}

// SourceTypes lists every supported source type
var SourceTypes = []string{"weather", "news", "traffic", "market", "shipping"}

// DefaultManager wires mock feeds, replacing them with HTTP-backed
// feeds when an upstream base URL is configured.
func DefaultManager(baseURL string, client *CachedClient) *Manager {
	if baseURL != "" && client != nil {
		srcs := make([]Source, 0, len(SourceTypes))
		for _, t := range SourceTypes {
			srcs = append(srcs, NewHTTPSource(t, baseURL, client))
		}
		return NewManager(srcs...)
	}
	return NewManager(
		MockWeatherSource{},
		MockNewsSource{},
		MockTrafficSource{},
		MockMarketSource{},
		MockShippingSource{},
	)
}
