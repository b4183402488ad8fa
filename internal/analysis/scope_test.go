package analysis

import (
	"testing"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/database"
)

type fakeScopeStore struct {
	manufacturer *database.Manufacturer
	suppliers    []*database.Supplier
}

func (s *fakeScopeStore) GetManufacturer(id uuid.UUID) (*database.Manufacturer, error) {
	return s.manufacturer, nil
}

func (s *fakeScopeStore) ListSuppliers(manufacturerID uuid.UUID) ([]*database.Supplier, error) {
	return s.suppliers, nil
}

func strptr(s string) *string { return &s }

func TestResolveScope(t *testing.T) {
	manufacturerID := uuid.New()
	store := &fakeScopeStore{
		manufacturer: &database.Manufacturer{
			ID:   manufacturerID,
			Name: "Acme Motors",
			City: strptr("Munich"),
		},
		suppliers: []*database.Supplier{
			{Name: "Nordic Steel", City: strptr("Hamburg"), Commodities: strptr("steel; copper")},
			{Name: "Pacific Chips", City: strptr("Taipei"), Commodities: strptr("semiconductors,copper")},
			{Name: "Local Parts", City: strptr("Munich")},
		},
	}

	scope, err := ResolveScope(store, manufacturerID)
	if err != nil {
		t.Fatalf("ResolveScope failed: %v", err)
	}

	if scope.Name != "Acme Motors" {
		t.Errorf("Unexpected name %s", scope.Name)
	}
	// Manufacturer city first, duplicates removed
	if len(scope.Cities) != 3 || scope.Cities[0] != "Munich" {
		t.Errorf("Unexpected cities: %v", scope.Cities)
	}
	if len(scope.SupplierNames) != 3 {
		t.Errorf("Unexpected supplier names: %v", scope.SupplierNames)
	}
	// Both separators split, copper deduplicated, first-seen order kept
	want := []string{"steel", "copper", "semiconductors"}
	if len(scope.Commodities) != len(want) {
		t.Fatalf("Unexpected commodities: %v", scope.Commodities)
	}
	for i, c := range want {
		if scope.Commodities[i] != c {
			t.Errorf("Commodity %d: expected %s, got %s", i, c, scope.Commodities[i])
		}
	}
}

func TestResolveScope_CommodityOrderStable(t *testing.T) {
	manufacturerID := uuid.New()
	store := &fakeScopeStore{
		manufacturer: &database.Manufacturer{ID: manufacturerID, Name: "Acme Motors"},
		suppliers: []*database.Supplier{
			{Name: "Globex", Commodities: strptr("lithium, nickel, cobalt, steel, copper, grain, semiconductors, oil")},
		},
	}

	first, err := ResolveScope(store, manufacturerID)
	if err != nil {
		t.Fatalf("ResolveScope failed: %v", err)
	}
	for i := 0; i < 30; i++ {
		again, err := ResolveScope(store, manufacturerID)
		if err != nil {
			t.Fatalf("ResolveScope failed: %v", err)
		}
		for j := range first.Commodities {
			if again.Commodities[j] != first.Commodities[j] {
				t.Fatalf("Commodity order changed between calls: %v vs %v", first.Commodities, again.Commodities)
			}
		}
	}
	if first.Commodities[0] != "lithium" || first.Commodities[7] != "oil" {
		t.Errorf("Commodities must keep input order: %v", first.Commodities)
	}
}

func TestSourceParams_RoutesToManufacturerCity(t *testing.T) {
	scope := &Scope{
		Name:        "Acme Motors",
		Cities:      []string{"Munich", "Hamburg", "Taipei", "Munich"},
		Commodities: []string{"steel"},
	}
	params := scope.SourceParams()

	if len(params.Routes) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(params.Routes))
	}
	for _, r := range params.Routes {
		if r.Destination != "Munich" {
			t.Errorf("Route destination must be the manufacturer city: %+v", r)
		}
		if r.Origin == "Munich" {
			t.Errorf("Self-route must be skipped: %+v", r)
		}
	}
	if params.Keywords[0] != "supply chain" || params.Keywords[len(params.Keywords)-1] != "steel" {
		t.Errorf("Unexpected keywords: %v", params.Keywords)
	}
}

func TestSourceParams_Defaults(t *testing.T) {
	params := (&Scope{Name: "Empty"}).SourceParams()

	if len(params.Cities) != 5 {
		t.Errorf("Expected default cities, got %v", params.Cities)
	}
	if len(params.Commodities) != 5 {
		t.Errorf("Expected default commodities, got %v", params.Commodities)
	}
	// Default cities still feed route construction: every other default
	// city routes to the first one.
	if len(params.Routes) != 4 {
		t.Fatalf("Expected 4 routes over default cities, got %v", params.Routes)
	}
	for i, r := range params.Routes {
		if r.Origin != defaultCities[i+1] || r.Destination != "New York" {
			t.Errorf("Unexpected route %d: %+v", i, r)
		}
	}
}

func TestGlobalNewsParams(t *testing.T) {
	params := GlobalNewsParams()
	if len(params.Keywords) != 6 {
		t.Errorf("Expected 6 global keywords, got %d", len(params.Keywords))
	}
	if len(params.Cities) != 0 || len(params.Routes) != 0 {
		t.Errorf("Global params must carry keywords only: %+v", params)
	}
}
