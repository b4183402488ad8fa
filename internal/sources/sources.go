// Package sources provides the external signal feeds consumed by the
// analysis stages. Each source returns raw JSON items for one source
// type; the manager fans a fetch out across the requested types.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
)

// Route is an origin/destination pair for traffic and shipping feeds
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Params narrows a fetch to the manufacturer's supply network
type Params struct {
	Cities      []string
	Commodities []string
	Routes      []Route
	Keywords    []string
}

// Source is one signal feed
type Source interface {
	Type() string
	Fetch(ctx context.Context, params Params) ([]json.RawMessage, error)
}

// Manager dispatches fetches across registered sources by type
type Manager struct {
	sources map[string]Source
}

// NewManager registers the given sources. Later registrations of the
// same type replace earlier ones.
func NewManager(srcs ...Source) *Manager {
	m := &Manager{sources: make(map[string]Source, len(srcs))}
	for _, s := range srcs {
		m.sources[s.Type()] = s
	}
	return m
}

// FetchByTypes fetches all requested source types and returns items
// grouped by type. A failing source logs and contributes no items
// rather than failing the whole fetch.
func (m *Manager) FetchByTypes(ctx context.Context, types []string, params Params) map[string][]json.RawMessage {
	out := make(map[string][]json.RawMessage, len(types))
	for _, t := range types {
		src, ok := m.sources[t]
		if !ok {
			fmt.Printf("No data source registered for type %s\n", t)
			continue
		}
		items, err := src.Fetch(ctx, params)
		if err != nil {
			fmt.Printf("Data source %s fetch failed: %v\n", t, err)
			continue
		}
		out[t] = items
	}
	return out
}
