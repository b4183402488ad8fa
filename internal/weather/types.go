// Package weather implements the staged shipment exposure pipeline:
// endpoint resolution, waypoint construction, per-day weather
// resolution with tiered fallback, and risk aggregation into the
// exposure report payload.
package weather

import (
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/riskengine"
)

// DaySnapshot is one waypoint-day with its resolved weather reading
type DaySnapshot struct {
	Date         time.Time
	DayNumber    int // 1-based
	Location     string
	City         string
	Reading      riskengine.Reading
	IsHistorical bool
}

// DayRisk pairs a snapshot with its risk decomposition
type DayRisk struct {
	Snapshot DaySnapshot
	Risk     riskengine.Summary
	Summary  string // rendered one-line description
}

// Request seeds one pipeline execution. Zero StartDate defaults to
// today; zero TransitDays defaults to the configured transit duration.
type Request struct {
	SupplierID     uuid.UUID
	ManufacturerID uuid.UUID
	StartDate      time.Time
	TransitDays    int
}

// LocationResolver resolves the city of a route endpoint
type LocationResolver interface {
	SupplierCity(id uuid.UUID) (string, error)
	ManufacturerCity(id uuid.UUID) (string, error)
}
