// Package analysis implements the signal extraction, scoring, planning
// and run orchestration stages over fetched source data.
package analysis

import (
	"encoding/json"
	"strings"
)

// Scope narrows one analysis run to a manufacturer's supply network
type Scope struct {
	ManufacturerID string
	Name           string
	SupplierNames  []string
	Locations      []string
	Cities         []string
	Countries      []string
	Regions        []string
	Commodities    []string
}

// RiskRecord is one extracted risk before persistence. SourceType and
// SourceData are stamped by the extraction engine, not the backend.
type RiskRecord struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Severity          string   `json:"severity"`
	AffectedRegion    string   `json:"affectedRegion"`
	AffectedSupplier  string   `json:"affectedSupplier"`
	AffectedSuppliers []string `json:"affectedSuppliers"`
	EstimatedImpact   string   `json:"estimatedImpact"`
	EstimatedCost     float64  `json:"estimatedCost"`

	SourceType string          `json:"-"`
	SourceData json.RawMessage `json:"-"`
}

// SupplierNames merges the single and plural affected-supplier fields,
// trimming blanks and preserving order.
func (r *RiskRecord) SupplierNames() []string {
	names := make([]string, 0, len(r.AffectedSuppliers)+1)
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, n := range r.AffectedSuppliers {
		add(n)
	}
	add(r.AffectedSupplier)
	return names
}

// OpportunityRecord is one extracted opportunity before persistence
type OpportunityRecord struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Type             string  `json:"type"`
	AffectedRegion   string  `json:"affectedRegion"`
	PotentialBenefit string  `json:"potentialBenefit"`
	EstimatedValue   float64 `json:"estimatedValue"`

	SourceType string          `json:"-"`
	SourceData json.RawMessage `json:"-"`
}

// PlanRecord is one generated mitigation or opportunity plan
type PlanRecord struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Actions     []string        `json:"actions"`
	Metadata    json.RawMessage `json:"metadata"`
	AssignedTo  string          `json:"assignedTo"`
	DueDate     string          `json:"dueDate"` // YYYY-MM-DD
}

// extraction is the JSON envelope the inference backend must return
type extraction struct {
	Risks         []RiskRecord        `json:"risks"`
	Opportunities []OpportunityRecord `json:"opportunities"`
}
