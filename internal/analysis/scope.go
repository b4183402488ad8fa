package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/database"
	"github.com/smukkama/riskwatch/internal/sources"
)

// Defaults applied when a scope yields no usable values
var (
	defaultCities      = []string{"New York", "London", "Tokyo", "Mumbai", "Shanghai"}
	defaultCommodities = []string{"steel", "copper", "oil", "grain", "semiconductors"}
	defaultRoute       = sources.Route{Origin: "New York", Destination: "Los Angeles"}
	baseKeywords       = []string{"supply chain", "manufacturing", "logistics"}
	globalKeywords     = []string{
		"global supply chain", "geopolitical risk", "trade disruption",
		"raw materials shortage", "logistics crisis", "shipping capacity",
	}
)

// ErrScopeNotFound reports that the manufacturer row does not exist.
// Callers iterating many manufacturers skip on this and fail on
// anything else.
var ErrScopeNotFound = errors.New("manufacturer not found")

// ScopeStore is the persistence surface the scope resolver needs
type ScopeStore interface {
	GetManufacturer(id uuid.UUID) (*database.Manufacturer, error)
	ListSuppliers(manufacturerID uuid.UUID) ([]*database.Supplier, error)
}

// ResolveScope collects the manufacturer's own location and its
// suppliers' locations and commodities into one deduplicated scope.
// The manufacturer's city is always first so route construction can
// treat it as the destination.
func ResolveScope(store ScopeStore, manufacturerID uuid.UUID) (*Scope, error) {
	m, err := store.GetManufacturer(manufacturerID)
	if err != nil {
		return nil, fmt.Errorf("loading manufacturer %s: %w", manufacturerID, err)
	}
	if m == nil {
		return nil, fmt.Errorf("manufacturer %s: %w", manufacturerID, ErrScopeNotFound)
	}

	suppliers, err := store.ListSuppliers(manufacturerID)
	if err != nil {
		return nil, fmt.Errorf("loading suppliers for %s: %w", manufacturerID, err)
	}

	scope := &Scope{
		ManufacturerID: manufacturerID.String(),
		Name:           m.Name,
	}

	appendStr := func(dst *[]string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			*dst = append(*dst, strings.TrimSpace(*v))
		}
	}

	appendStr(&scope.Locations, m.Location)
	appendStr(&scope.Cities, m.City)
	appendStr(&scope.Countries, m.Country)
	appendStr(&scope.Regions, m.Region)

	for _, s := range suppliers {
		if s.Name != "" {
			scope.SupplierNames = append(scope.SupplierNames, s.Name)
		}
		appendStr(&scope.Locations, s.Location)
		appendStr(&scope.Cities, s.City)
		appendStr(&scope.Countries, s.Country)
		appendStr(&scope.Regions, s.Region)
		if s.Commodities != nil {
			scope.Commodities = append(scope.Commodities, splitCommodities(*s.Commodities)...)
		}
	}

	scope.SupplierNames = dedupe(scope.SupplierNames)
	scope.Locations = dedupe(scope.Locations)
	scope.Cities = dedupe(scope.Cities)
	scope.Countries = dedupe(scope.Countries)
	scope.Regions = dedupe(scope.Regions)
	scope.Commodities = dedupe(scope.Commodities)

	return scope, nil
}

// splitCommodities accepts both ";" and "," separated lists
func splitCommodities(raw string) []string {
	parts := strings.Split(strings.ReplaceAll(raw, ";", ","), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// SourceParams builds the fetch parameters for supplier-scoped feeds.
// Routes run from each supplier city to the manufacturer city, which
// is the first scope city by construction.
func (s *Scope) SourceParams() sources.Params {
	cities := s.Cities
	if len(cities) == 0 && len(s.Locations) > 0 {
		cities = s.Locations
		if len(cities) > 10 {
			cities = cities[:10]
		}
	}
	if len(cities) == 0 {
		cities = defaultCities
	}

	commodities := s.Commodities
	if len(commodities) == 0 {
		commodities = defaultCommodities
	}

	var routes []sources.Route
	if len(cities) > 0 {
		oemCity := cities[0]
		supplierCities := cities[1:]
		if len(supplierCities) == 0 {
			supplierCities = []string{oemCity}
		}
		if len(supplierCities) > 10 {
			supplierCities = supplierCities[:10]
		}
		for _, c := range supplierCities {
			if c == oemCity {
				continue
			}
			routes = append(routes, sources.Route{Origin: c, Destination: oemCity})
		}
	}
	if len(routes) == 0 {
		routes = []sources.Route{defaultRoute}
	}

	keywords := append([]string{}, baseKeywords...)
	kw := s.Commodities
	if len(kw) > 3 {
		kw = kw[:3]
	}
	keywords = append(keywords, kw...)

	return sources.Params{
		Cities:      cities,
		Commodities: commodities,
		Routes:      routes,
		Keywords:    keywords,
	}
}

// GlobalNewsParams seeds the global risk sweep, independent of any scope
func GlobalNewsParams() sources.Params {
	return sources.Params{Keywords: append([]string{}, globalKeywords...)}
}
