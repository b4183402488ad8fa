package protocol

import (
	"encoding/json"
)

// RunStatusMessage is the broadcast payload for agent run state changes
type RunStatusMessage struct {
	RunID                   string `json:"run_id"`
	State                   string `json:"state"`
	CurrentTask             string `json:"current_task,omitempty"`
	ErrorMessage            string `json:"error_message,omitempty"`
	RisksDetected           int    `json:"risks_detected"`
	OpportunitiesIdentified int    `json:"opportunities_identified"`
	PlansGenerated          int    `json:"plans_generated"`
	LastUpdated             string `json:"last_updated"`
	CreatedAt               string `json:"created_at"`
}

// SupplierPayload is one supplier entry in the snapshot broadcast
type SupplierPayload struct {
	ID              string              `json:"id"`
	ManufacturerID  string              `json:"manufacturer_id"`
	Name            string              `json:"name"`
	Location        string              `json:"location,omitempty"`
	City            string              `json:"city,omitempty"`
	Country         string              `json:"country,omitempty"`
	Region          string              `json:"region,omitempty"`
	Commodities     string              `json:"commodities,omitempty"`
	LatestRiskScore *float64            `json:"latest_risk_score,omitempty"`
	LatestRiskLevel *string             `json:"latest_risk_level,omitempty"`
	RiskSummary     SupplierRiskSummary `json:"risk_summary"`
}

// SupplierRiskSummary counts the detected risks naming one supplier
type SupplierRiskSummary struct {
	Count      int            `json:"count"`
	BySeverity map[string]int `json:"by_severity"`
	Latest     *LatestRisk    `json:"latest,omitempty"`
}

// LatestRisk identifies the most recent risk in a supplier summary
type LatestRisk struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
}

// SupplierSnapshotMessage is the broadcast payload for one manufacturer's suppliers
type SupplierSnapshotMessage struct {
	ManufacturerID string            `json:"manufacturer_id"`
	Suppliers      []SupplierPayload `json:"suppliers"`
}

// ShipmentMetadata describes the analyzed route
type ShipmentMetadata struct {
	SupplierCity string `json:"supplier_city"`
	OEMCity      string `json:"oem_city"`
	StartDate    string `json:"start_date"`
	TransitDays  int    `json:"transit_days"`
}

// ExposureSummary aggregates the per-day risk scores of a shipment
type ExposureSummary struct {
	AverageRiskScore float64  `json:"average_risk_score"`
	PeakRiskScore    float64  `json:"peak_risk_score"`
	PeakRiskDay      int      `json:"peak_risk_day"`
	PeakRiskDate     string   `json:"peak_risk_date"`
	HighRiskDayCount int      `json:"high_risk_day_count"`
	HighRiskDates    []string `json:"high_risk_dates"`
}

// DayWeather holds the weather readings of one timeline entry
type DayWeather struct {
	Condition string  `json:"condition"`
	TempC     float64 `json:"temp_c"`
	WindKph   float64 `json:"wind_kph"`
	PrecipMm  float64 `json:"precip_mm"`
	VisKm     float64 `json:"vis_km"`
	Humidity  int     `json:"humidity"`
}

// TimelineEntry is one day of the shipment exposure timeline
type TimelineEntry struct {
	Day          int        `json:"day"`
	Date         string     `json:"date"`
	Location     string     `json:"location"`
	IsHistorical bool       `json:"is_historical"`
	Weather      DayWeather `json:"weather"`
	RiskScore    float64    `json:"risk_score"`
	RiskLevel    string     `json:"risk_level"`
	KeyConcern   string     `json:"key_concern"`
}

// ExposureReport is the full weather exposure payload for one shipment
type ExposureReport struct {
	ShipmentMetadata   ShipmentMetadata   `json:"shipment_metadata"`
	ExposureSummary    ExposureSummary    `json:"exposure_summary"`
	RiskFactorsMax     map[string]float64 `json:"risk_factors_max"`
	PrimaryConcerns    []string           `json:"primary_concerns"`
	RecommendedActions []string           `json:"recommended_actions"`
	DailyTimeline      []TimelineEntry    `json:"daily_timeline"`
}

// EncodeRunStatus encodes a RunStatusMessage to JSON
func EncodeRunStatus(msg *RunStatusMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeRunStatus decodes JSON to RunStatusMessage
func DecodeRunStatus(data []byte) (*RunStatusMessage, error) {
	var msg RunStatusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EncodeSupplierSnapshot encodes a SupplierSnapshotMessage to JSON
func EncodeSupplierSnapshot(msg *SupplierSnapshotMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeSupplierSnapshot decodes JSON to SupplierSnapshotMessage
func DecodeSupplierSnapshot(data []byte) (*SupplierSnapshotMessage, error) {
	var msg SupplierSnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
