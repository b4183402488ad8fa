package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smukkama/riskwatch/internal/database"
	"github.com/smukkama/riskwatch/internal/llm"
)

const dueDateLayout = "2006-01-02"

// planRisk is the slice of a persisted risk the plan prompts need
type planRisk struct {
	ID             string
	Title          string
	Severity       string
	Description    string
	AffectedRegion string
}

func toPlanRisk(r *database.Risk) planRisk {
	p := planRisk{
		ID:          r.ID.String(),
		Title:       r.Title,
		Severity:    r.Severity,
		Description: r.Description,
	}
	if r.AffectedRegion != nil {
		p.AffectedRegion = *r.AffectedRegion
	}
	return p
}

// Planner generates mitigation and opportunity plans, via the inference
// backend when available and deterministic templates otherwise.
type Planner struct {
	backend llm.Invoker
}

// NewPlanner builds a planner. backend may be nil.
func NewPlanner(backend llm.Invoker) *Planner {
	return &Planner{backend: backend}
}

// MitigationPlan builds a plan for one risk. It never fails; any
// backend problem falls back to the template plan.
func (p *Planner) MitigationPlan(ctx context.Context, risk *database.Risk) *PlanRecord {
	supplierLabel := strings.Join(risk.AffectedSuppliers, ", ")

	if p.backend != nil {
		record := RiskRecord{
			Title:       risk.Title,
			Description: risk.Description,
			Severity:    risk.Severity,
		}
		if risk.AffectedRegion != nil {
			record.AffectedRegion = *risk.AffectedRegion
		}
		if plan := p.invokePlan(ctx, mitigationPlanPrompt(&record, supplierLabel)); plan != nil {
			return plan
		}
	}

	metadata, _ := json.Marshal(map[string]any{
		"riskSeverity":  risk.Severity,
		"autoGenerated": true,
	})
	return &PlanRecord{
		Title:       fmt.Sprintf("Mitigation Plan: %s", risk.Title),
		Description: fmt.Sprintf("Comprehensive mitigation strategy for %s severity risk", risk.Severity),
		Actions: []string{
			"Assess immediate impact on operations",
			"Contact affected suppliers for status update",
			"Identify alternative suppliers or routes",
			"Implement contingency logistics plan",
			"Monitor situation and update stakeholders",
		},
		Metadata:   metadata,
		AssignedTo: "Supply Chain Team",
		DueDate:    time.Now().UTC().AddDate(0, 0, 7).Format(dueDateLayout),
	}
}

// CombinedPlan builds one plan covering every risk naming the supplier.
// The risk ids always end up in the plan metadata, whichever path
// produced the plan.
func (p *Planner) CombinedPlan(ctx context.Context, supplierName string, risks []*database.Risk) *PlanRecord {
	promptRisks := make([]planRisk, 0, len(risks))
	riskIDs := make([]string, 0, len(risks))
	for _, r := range risks {
		promptRisks = append(promptRisks, toPlanRisk(r))
		riskIDs = append(riskIDs, r.ID.String())
	}

	if p.backend != nil {
		if plan := p.invokePlan(ctx, combinedPlanPrompt(supplierName, promptRisks)); plan != nil {
			plan.Metadata = mergeMetadata(plan.Metadata, map[string]any{
				"combinedForSupplier": supplierName,
				"riskIds":             riskIDs,
			})
			return plan
		}
	}

	metadata, _ := json.Marshal(map[string]any{
		"combinedForSupplier": supplierName,
		"riskIds":             riskIDs,
		"riskCount":           len(risks),
	})
	return &PlanRecord{
		Title:       fmt.Sprintf("Combined Mitigation Plan: %s", supplierName),
		Description: fmt.Sprintf("Unified contingency plan for %s addressing %d risk(s).", supplierName, len(risks)),
		Actions: []string{
			"Contact supplier for status and expected recovery",
			"Assess impact on production schedule and customer orders",
			"Identify and qualify backup suppliers or routes",
			"Update inventory and safety stock targets",
			"Document and communicate plan to stakeholders",
		},
		Metadata:   metadata,
		AssignedTo: "Supply Chain Team",
		DueDate:    time.Now().UTC().AddDate(0, 0, 7).Format(dueDateLayout),
	}
}

// OpportunityPlan builds a capture plan for one opportunity
func (p *Planner) OpportunityPlan(ctx context.Context, opp *database.Opportunity) *PlanRecord {
	if p.backend != nil {
		record := OpportunityRecord{
			Title:       opp.Title,
			Description: opp.Description,
			Type:        opp.Type,
		}
		if opp.PotentialBenefit != nil {
			record.PotentialBenefit = *opp.PotentialBenefit
		}
		if plan := p.invokePlan(ctx, opportunityPlanPrompt(&record)); plan != nil {
			return plan
		}
	}

	metadata, _ := json.Marshal(map[string]any{
		"opportunityType": opp.Type,
		"autoGenerated":   true,
	})
	return &PlanRecord{
		Title:       fmt.Sprintf("Action Plan: %s", opp.Title),
		Description: "Strategic plan to capitalize on identified opportunity",
		Actions: []string{
			"Evaluate opportunity feasibility",
			"Calculate potential ROI",
			"Develop implementation timeline",
			"Secure necessary approvals",
			"Execute opportunity capture plan",
		},
		Metadata:   metadata,
		AssignedTo: "Strategic Planning Team",
		DueDate:    time.Now().UTC().AddDate(0, 0, 14).Format(dueDateLayout),
	}
}

func (p *Planner) invokePlan(ctx context.Context, prompt string) *PlanRecord {
	content, err := p.backend.Invoke(ctx, prompt)
	if err != nil {
		fmt.Printf("Plan generation failed: %v\n", err)
		return nil
	}
	var plan PlanRecord
	if !llm.UnmarshalFirst(content, &plan) || plan.Title == "" {
		fmt.Printf("Plan generation response had no parseable plan\n")
		return nil
	}
	return &plan
}

// mergeMetadata sets the given keys on top of existing plan metadata
func mergeMetadata(existing json.RawMessage, extra map[string]any) json.RawMessage {
	merged := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &merged); err != nil {
			merged = make(map[string]any)
		}
	}
	for k, v := range extra {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return out
}
