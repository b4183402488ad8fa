package database

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels for a Risk
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Risk lifecycle states
const (
	RiskStatusDetected      = "detected"
	RiskStatusAnalyzing     = "analyzing"
	RiskStatusMitigating    = "mitigating"
	RiskStatusResolved      = "resolved"
	RiskStatusFalsePositive = "false_positive"
)

// Opportunity types
const (
	OpportunityCostSaving      = "cost_saving"
	OpportunityTimeSaving      = "time_saving"
	OpportunityQuality         = "quality_improvement"
	OpportunityMarketExpansion = "market_expansion"
	OpportunityDiversification = "supplier_diversification"
)

// Opportunity lifecycle states
const (
	OpportunityStatusIdentified = "identified"
	OpportunityStatusEvaluating = "evaluating"
	OpportunityStatusPursuing   = "pursuing"
	OpportunityStatusRealized   = "realized"
	OpportunityStatusDismissed  = "dismissed"
)

// Mitigation plan states
const (
	PlanStatusDraft      = "draft"
	PlanStatusApproved   = "approved"
	PlanStatusInProgress = "in_progress"
	PlanStatusCompleted  = "completed"
	PlanStatusCancelled  = "cancelled"
)

// Run states for one workflow execution
const (
	RunStateIdle       = "idle"
	RunStateMonitoring = "monitoring"
	RunStateAnalyzing  = "analyzing"
	RunStateProcessing = "processing"
	RunStateCompleted  = "completed"
	RunStateError      = "error"
)

// Manufacturer is the OEM whose supply chain is analyzed
type Manufacturer struct {
	ID        uuid.UUID
	Name      string
	Location  *string
	City      *string
	Country   *string
	Region    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Supplier belongs to one manufacturer. LatestRiskScore/Level are nil
// when the supplier has no currently-detected risks.
type Supplier struct {
	ID              uuid.UUID
	ManufacturerID  uuid.UUID
	Name            string
	Location        *string
	City            *string
	Country         *string
	Region          *string
	Commodities     *string
	LatestRiskScore *float64
	LatestRiskLevel *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Risk is one detected supply-chain risk, tagged with the run that found it
type Risk struct {
	ID                uuid.UUID
	Title             string
	Description       string
	Severity          string
	Status            string
	SourceType        string
	SourceData        []byte // raw JSON of the originating item
	AffectedRegion    *string
	AffectedSuppliers []string
	EstimatedImpact   *string
	EstimatedCost     *float64
	SupplierID        *uuid.UUID
	ManufacturerID    uuid.UUID
	RunID             uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Opportunity is one identified optimization, analogous to Risk
type Opportunity struct {
	ID               uuid.UUID
	Title            string
	Description      string
	Type             string
	Status           string
	SourceType       string
	SourceData       []byte
	AffectedRegion   *string
	PotentialBenefit *string
	EstimatedValue   *float64
	ManufacturerID   uuid.UUID
	RunID            uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MitigationPlan references at most one of RiskID / OpportunityID
type MitigationPlan struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Actions       []string
	Status        string
	RiskID        *uuid.UUID
	OpportunityID *uuid.UUID
	Metadata      []byte // free-form JSON
	AssignedTo    *string
	DueDate       *time.Time
	RunID         uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RiskScore is the persisted OEM-level weighted score for one run
type RiskScore struct {
	ID             uuid.UUID
	ManufacturerID uuid.UUID
	OverallScore   float64
	Breakdown      []byte // JSON map source_type -> weighted points
	SeverityCounts []byte // JSON map severity -> count
	RiskIDs        *string
	RunID          uuid.UUID
	CreatedAt      time.Time
}

// Run is one row per workflow execution
type Run struct {
	ID                      uuid.UUID
	State                   string
	CurrentTask             *string
	RisksDetected           int
	OpportunitiesIdentified int
	PlansGenerated          int
	ErrorMessage            *string
	LastUpdated             time.Time
	CreatedAt               time.Time
}

// SupplierRiskSummary aggregates detected risks naming one supplier,
// used in the broadcast snapshot payload.
type SupplierRiskSummary struct {
	Count       int
	BySeverity  map[string]int
	LatestID    string
	LatestTitle string
	LatestSev   string
}
