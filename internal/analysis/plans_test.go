package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/database"
)

func TestMitigationPlan_Fallback(t *testing.T) {
	p := NewPlanner(nil)
	risk := &database.Risk{
		ID:       uuid.New(),
		Title:    "Weather Alert: Storm in Mumbai",
		Severity: "high",
	}
	plan := p.MitigationPlan(context.Background(), risk)

	if !strings.HasPrefix(plan.Title, "Mitigation Plan:") {
		t.Errorf("Unexpected title: %s", plan.Title)
	}
	if len(plan.Actions) != 5 {
		t.Errorf("Expected 5 template actions, got %d", len(plan.Actions))
	}
	due, err := time.Parse(dueDateLayout, plan.DueDate)
	if err != nil {
		t.Fatalf("Due date not parseable: %v", err)
	}
	want := time.Now().UTC().AddDate(0, 0, 7)
	if due.Sub(want) > 24*time.Hour || want.Sub(due) > 24*time.Hour {
		t.Errorf("Expected due in ~7 days, got %s", plan.DueDate)
	}
	var meta map[string]any
	if err := json.Unmarshal(plan.Metadata, &meta); err != nil {
		t.Fatalf("Metadata not JSON: %v", err)
	}
	if meta["riskSeverity"] != "high" {
		t.Errorf("Metadata missing severity: %+v", meta)
	}
}

func TestCombinedPlan_FallbackCarriesRiskIDs(t *testing.T) {
	p := NewPlanner(nil)
	risks := []*database.Risk{
		{ID: uuid.New(), Title: "Risk A", Severity: "high"},
		{ID: uuid.New(), Title: "Risk B", Severity: "medium"},
	}
	plan := p.CombinedPlan(context.Background(), "Nordic Steel", risks)

	if plan.Title != "Combined Mitigation Plan: Nordic Steel" {
		t.Errorf("Unexpected title: %s", plan.Title)
	}
	var meta struct {
		CombinedForSupplier string   `json:"combinedForSupplier"`
		RiskIDs             []string `json:"riskIds"`
		RiskCount           int      `json:"riskCount"`
	}
	if err := json.Unmarshal(plan.Metadata, &meta); err != nil {
		t.Fatalf("Metadata not JSON: %v", err)
	}
	if meta.CombinedForSupplier != "Nordic Steel" || meta.RiskCount != 2 {
		t.Errorf("Unexpected metadata: %+v", meta)
	}
	if len(meta.RiskIDs) != 2 || meta.RiskIDs[0] != risks[0].ID.String() {
		t.Errorf("Risk ids missing from metadata: %+v", meta.RiskIDs)
	}
}

func TestCombinedPlan_BackendMetadataMerged(t *testing.T) {
	backend := &fakeInvoker{response: `{"title":"Combined Mitigation Plan: Nordic Steel","description":"d","actions":["a"],"metadata":{"priority":"urgent"},"assignedTo":"Team","dueDate":"2026-09-15"}`}
	p := NewPlanner(backend)
	risks := []*database.Risk{{ID: uuid.New(), Title: "Risk A", Severity: "critical"}}

	plan := p.CombinedPlan(context.Background(), "Nordic Steel", risks)

	var meta map[string]any
	if err := json.Unmarshal(plan.Metadata, &meta); err != nil {
		t.Fatalf("Metadata not JSON: %v", err)
	}
	if meta["priority"] != "urgent" {
		t.Errorf("Backend metadata lost: %+v", meta)
	}
	if meta["combinedForSupplier"] != "Nordic Steel" {
		t.Errorf("Supplier stamp missing: %+v", meta)
	}
	ids, ok := meta["riskIds"].([]any)
	if !ok || len(ids) != 1 {
		t.Errorf("Risk ids not merged into backend metadata: %+v", meta)
	}
}

func TestOpportunityPlan_Fallback(t *testing.T) {
	p := NewPlanner(nil)
	opp := &database.Opportunity{
		ID:    uuid.New(),
		Title: "Price Drop Opportunity: copper",
		Type:  "cost_saving",
	}
	plan := p.OpportunityPlan(context.Background(), opp)

	if !strings.HasPrefix(plan.Title, "Action Plan:") {
		t.Errorf("Unexpected title: %s", plan.Title)
	}
	due, err := time.Parse(dueDateLayout, plan.DueDate)
	if err != nil {
		t.Fatalf("Due date not parseable: %v", err)
	}
	want := time.Now().UTC().AddDate(0, 0, 14)
	if due.Sub(want) > 24*time.Hour || want.Sub(due) > 24*time.Hour {
		t.Errorf("Expected due in ~14 days, got %s", plan.DueDate)
	}
	if plan.AssignedTo != "Strategic Planning Team" {
		t.Errorf("Unexpected assignee: %s", plan.AssignedTo)
	}
}

func TestPlanner_UnparseableBackendFallsBack(t *testing.T) {
	backend := &fakeInvoker{response: "no structured plan here"}
	p := NewPlanner(backend)

	plan := p.MitigationPlan(context.Background(), &database.Risk{ID: uuid.New(), Title: "X", Severity: "low"})
	if !strings.HasPrefix(plan.Title, "Mitigation Plan:") {
		t.Errorf("Expected template fallback, got %s", plan.Title)
	}
}
