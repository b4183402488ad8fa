package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// analysisPrompt asks the backend for risks and opportunities in one
// source item, constrained to the manufacturer's network.
func analysisPrompt(sourceType string, item json.RawMessage, scope *Scope) string {
	scopeCtx := ""
	if scope != nil {
		locations := joinOr(append(append(append([]string{}, scope.Cities...), scope.Regions...), scope.Countries...), "None")
		scopeCtx = fmt.Sprintf(`
You are analyzing data for OEM: %q.
Relevant suppliers: %s.
Relevant locations: %s.
Relevant commodities: %s.
Only report risks and opportunities relevant to this OEM's supply chain.
`,
			scope.Name,
			joinOr(scope.SupplierNames, "None"),
			locations,
			joinOr(scope.Commodities, "None"),
		)
	}

	return fmt.Sprintf(`You are a supply chain risk intelligence agent. Analyze the following %s data and identify:
1. Potential risks (severity: low, medium, high, critical)
2. Potential opportunities for optimization or cost savings
%s

Data:
%s

Return ONLY a valid JSON object:
{
  "risks": [
    { "title": "...", "description": "...", "severity": "low|medium|high|critical", "affectedRegion": "...", "affectedSupplier": "...", "estimatedImpact": "...", "estimatedCost": 0 }
  ],
  "opportunities": [
    { "title": "...", "description": "...", "type": "cost_saving|time_saving|quality_improvement|market_expansion|supplier_diversification", "affectedRegion": "...", "potentialBenefit": "...", "estimatedValue": 0 }
  ]
}
If none found, return empty arrays. Be specific and actionable.`, sourceType, scopeCtx, indentJSON(item))
}

func globalRiskPrompt(item json.RawMessage) string {
	return fmt.Sprintf(`You are a global supply chain risk analyst. Assess the following for GLOBAL supply chain risk (geopolitical, trade, raw materials, pandemics, climate, logistics).

Data:
%s

Return ONLY a valid JSON object:
{ "risks": [ { "title": "...", "description": "...", "severity": "low|medium|high|critical", "affectedRegion": "...", "affectedSupplier": null, "estimatedImpact": "...", "estimatedCost": 0 } ] }
If no material risks, return { "risks": [] }. Be concise.`, indentJSON(item))
}

func shippingDisruptionPrompt(item json.RawMessage) string {
	return fmt.Sprintf(`You are a shipping and logistics risk analyst. Analyze the following route/transport data for supply chain disruption risks.

Data:
%s

Return ONLY a valid JSON object:
{ "risks": [ { "title": "...", "description": "...", "severity": "low|medium|high|critical", "affectedRegion": "...", "affectedSupplier": null, "estimatedImpact": "...", "estimatedCost": 0 } ] }
If no risks, return { "risks": [] }. Be specific to shipping and logistics.`, indentJSON(item))
}

func mitigationPlanPrompt(risk *RiskRecord, supplierLabel string) string {
	if supplierLabel == "" {
		supplierLabel = "N/A"
	}
	region := risk.AffectedRegion
	if region == "" {
		region = "N/A"
	}
	return fmt.Sprintf(`Generate a detailed mitigation plan for this supply chain risk:
Title: %s
Description: %s
Severity: %s
Affected Region: %s
Affected Supplier: %s

Return ONLY a valid JSON object:
{ "title": "...", "description": "...", "actions": ["Action 1", "Action 2"], "metadata": {}, "assignedTo": "...", "dueDate": "YYYY-MM-DD" }`,
		risk.Title, risk.Description, risk.Severity, region, supplierLabel)
}

func combinedPlanPrompt(supplierName string, risks []planRisk) string {
	var summaries strings.Builder
	for _, r := range risks {
		region := r.AffectedRegion
		if region == "" {
			region = "N/A"
		}
		fmt.Fprintf(&summaries, "- %s (%s): %s Region: %s\n", r.Title, r.Severity, r.Description, region)
	}
	return fmt.Sprintf(`You are a supply chain risk manager. Create ONE combined mitigation plan for SUPPLIER addressing ALL listed risks.

Supplier: %s

Risks affecting this supplier:
%s
Return ONLY a valid JSON object:
{ "title": "Combined Mitigation Plan: [Supplier Name]", "description": "...", "actions": ["Action 1", "Action 2"], "metadata": { "supplierName": %q, "riskCount": %d }, "assignedTo": "Supply Chain / Procurement Team", "dueDate": "YYYY-MM-DD" }
Prioritize highest-severity risks first. Be specific and actionable.`, supplierName, summaries.String(), supplierName, len(risks))
}

func opportunityPlanPrompt(opp *OpportunityRecord) string {
	benefit := opp.PotentialBenefit
	if benefit == "" {
		benefit = "N/A"
	}
	return fmt.Sprintf(`Generate an action plan to capitalize on this supply chain opportunity:
Title: %s
Description: %s
Type: %s
Potential Benefit: %s

Return ONLY a valid JSON object:
{ "title": "...", "description": "...", "actions": ["Action 1", "Action 2"], "metadata": {}, "assignedTo": "...", "dueDate": "YYYY-MM-DD" }`,
		opp.Title, opp.Description, opp.Type, benefit)
}
