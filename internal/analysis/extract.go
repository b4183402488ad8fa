package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/smukkama/riskwatch/internal/llm"
)

// Extractor turns raw source items into risk and opportunity records.
// With a nil backend, or whenever a backend call or its response fails,
// the deterministic rule set produces the records instead.
type Extractor struct {
	backend llm.Invoker
}

// NewExtractor builds an extractor. backend may be nil.
func NewExtractor(backend llm.Invoker) *Extractor {
	return &Extractor{backend: backend}
}

// Analysis groups the records extracted from one batch of source data
type Analysis struct {
	Risks         []RiskRecord
	Opportunities []OpportunityRecord
}

// AnalyzeData extracts risks and opportunities from every item of every
// source type. Each record is stamped with its source type and raw item.
func (e *Extractor) AnalyzeData(ctx context.Context, data map[string][]json.RawMessage, scope *Scope) *Analysis {
	out := &Analysis{}
	for sourceType, items := range data {
		for _, item := range items {
			result := e.analyzeItem(ctx, sourceType, item, scope)
			for i := range result.Risks {
				r := result.Risks[i]
				r.SourceType = sourceType
				r.SourceData = item
				out.Risks = append(out.Risks, r)
			}
			for i := range result.Opportunities {
				o := result.Opportunities[i]
				o.SourceType = sourceType
				o.SourceData = item
				out.Opportunities = append(out.Opportunities, o)
			}
		}
	}
	return out
}

// AnalyzeGlobalRisk extracts risks only, against the global risk prompt.
// Records are tagged with source type "global_news".
func (e *Extractor) AnalyzeGlobalRisk(ctx context.Context, data map[string][]json.RawMessage) []RiskRecord {
	var out []RiskRecord
	for _, items := range data {
		for _, item := range items {
			risks := e.analyzeRisksOnly(ctx, item, globalRiskPrompt(item), func() []RiskRecord {
				return globalNewsFallback(item)
			})
			for i := range risks {
				r := risks[i]
				r.SourceType = "global_news"
				r.SourceData = item
				out = append(out, r)
			}
		}
	}
	return out
}

// AnalyzeShippingDisruptions extracts risks only from route data.
// Records are tagged with source type "shipping".
func (e *Extractor) AnalyzeShippingDisruptions(ctx context.Context, data map[string][]json.RawMessage) []RiskRecord {
	var out []RiskRecord
	for _, items := range data {
		for _, item := range items {
			risks := e.analyzeRisksOnly(ctx, item, shippingDisruptionPrompt(item), func() []RiskRecord {
				return shippingFallback(item)
			})
			for i := range risks {
				r := risks[i]
				r.SourceType = "shipping"
				r.SourceData = item
				out = append(out, r)
			}
		}
	}
	return out
}

func (e *Extractor) analyzeItem(ctx context.Context, sourceType string, item json.RawMessage, scope *Scope) *extraction {
	if e.backend != nil {
		content, err := e.backend.Invoke(ctx, analysisPrompt(sourceType, item, scope))
		if err != nil {
			fmt.Printf("Inference failed for %s item: %v\n", sourceType, err)
		} else {
			var parsed extraction
			if llm.UnmarshalFirst(content, &parsed) && parsed.Risks != nil && parsed.Opportunities != nil {
				return &parsed
			}
			fmt.Printf("Inference response for %s item had no parseable risks/opportunities\n", sourceType)
		}
	}
	return fallbackAnalyze(sourceType, item)
}

func (e *Extractor) analyzeRisksOnly(ctx context.Context, item json.RawMessage, prompt string, fallback func() []RiskRecord) []RiskRecord {
	if e.backend != nil {
		content, err := e.backend.Invoke(ctx, prompt)
		if err != nil {
			fmt.Printf("Inference failed for risks-only item: %v\n", err)
		} else {
			var parsed struct {
				Risks []RiskRecord `json:"risks"`
			}
			if llm.UnmarshalFirst(content, &parsed) && parsed.Risks != nil {
				return parsed.Risks
			}
			fmt.Printf("Inference response for risks-only item had no parseable JSON\n")
		}
	}
	return fallback()
}

// Deterministic fallback rules, one per source type. An item that
// matches no rule yields no records.

func fallbackAnalyze(sourceType string, item json.RawMessage) *extraction {
	out := &extraction{}
	switch sourceType {
	case "weather":
		var w struct {
			City      string `json:"city"`
			Country   string `json:"country"`
			Condition string `json:"condition"`
		}
		if err := json.Unmarshal(item, &w); err != nil {
			return out
		}
		if w.Condition == "Storm" || w.Condition == "Rain" {
			city := w.City
			if city == "" {
				city = "Unknown"
			}
			region := fmt.Sprintf("%s, %s", city, w.Country)
			out.Risks = append(out.Risks, RiskRecord{
				Title:           fmt.Sprintf("Weather Alert: %s in %s", w.Condition, city),
				Description:     fmt.Sprintf("Severe weather in %s, %s. May impact shipping and logistics.", city, w.Country),
				Severity:        "high",
				AffectedRegion:  region,
				EstimatedImpact: "Potential delays in shipping",
				EstimatedCost:   50000,
			})
		}
	case "news":
		var n struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(item, &n); err != nil {
			return out
		}
		title := strings.ToLower(n.Title)
		if strings.Contains(title, "disruption") || strings.Contains(title, "closure") || strings.Contains(title, "delay") {
			desc := n.Description
			if desc == "" {
				desc = "Supply chain disruption detected"
			}
			out.Risks = append(out.Risks, RiskRecord{
				Title:           fmt.Sprintf("News Alert: %s", n.Title),
				Description:     desc,
				Severity:        "medium",
				EstimatedImpact: "Potential supply chain impact",
				EstimatedCost:   30000,
			})
		}
	case "traffic":
		var t struct {
			Origin          string  `json:"origin"`
			Destination     string  `json:"destination"`
			EstimatedDelay  float64 `json:"estimatedDelay"`
			CongestionLevel string  `json:"congestionLevel"`
		}
		if err := json.Unmarshal(item, &t); err != nil {
			return out
		}
		if t.EstimatedDelay > 60 || t.CongestionLevel == "severe" {
			out.Risks = append(out.Risks, RiskRecord{
				Title:           fmt.Sprintf("Traffic Delay: %s to %s", t.Origin, t.Destination),
				Description:     fmt.Sprintf("Severe congestion. Estimated delay: %.0f minutes.", t.EstimatedDelay),
				Severity:        "medium",
				AffectedRegion:  fmt.Sprintf("%s - %s", t.Origin, t.Destination),
				EstimatedImpact: fmt.Sprintf("Transportation delay of %.0f minutes", t.EstimatedDelay),
				EstimatedCost:   10000,
			})
		}
	case "market":
		var m struct {
			Commodity          string  `json:"commodity"`
			PriceChange        float64 `json:"priceChange"`
			PriceChangePercent float64 `json:"priceChangePercent"`
		}
		if err := json.Unmarshal(item, &m); err != nil {
			return out
		}
		if m.PriceChangePercent < -5 {
			out.Opportunities = append(out.Opportunities, OpportunityRecord{
				Title:            fmt.Sprintf("Price Drop Opportunity: %s", m.Commodity),
				Description:      fmt.Sprintf("Significant price drop for %s. Consider strategic purchasing.", m.Commodity),
				Type:             "cost_saving",
				PotentialBenefit: fmt.Sprintf("Potential cost savings on %s procurement", m.Commodity),
				EstimatedValue:   math.Abs(m.PriceChange) * 1000,
			})
		}
	}
	return out
}

func globalNewsFallback(item json.RawMessage) []RiskRecord {
	var n struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(item, &n); err != nil {
		return nil
	}
	text := n.Title
	if text == "" {
		text = n.Description
	}
	lower := strings.ToLower(text)
	if lower == "" {
		return nil
	}
	if !strings.Contains(lower, "disruption") && !strings.Contains(lower, "crisis") && !strings.Contains(lower, "shortage") {
		return nil
	}
	title := n.Title
	if title == "" {
		title = lower
	}
	if len(title) > 60 {
		title = title[:60]
	}
	desc := n.Description
	if desc == "" {
		desc = lower
	}
	return []RiskRecord{{
		Title:           fmt.Sprintf("Global risk: %s", title),
		Description:     desc,
		Severity:        "medium",
		AffectedRegion:  "Global",
		EstimatedImpact: "Potential global supply chain impact",
		EstimatedCost:   50000,
	}}
}

func shippingFallback(item json.RawMessage) []RiskRecord {
	var s struct {
		Origin           string  `json:"origin"`
		Destination      string  `json:"destination"`
		Status           string  `json:"status"`
		RouteStatus      string  `json:"routeStatus"`
		DelayDays        float64 `json:"delayDays"`
		DisruptionReason string  `json:"disruptionReason"`
	}
	if err := json.Unmarshal(item, &s); err != nil {
		return nil
	}
	status := s.Status
	if status == "" {
		status = s.RouteStatus
	}
	if status != "disrupted" && status != "delayed" && s.DelayDays <= 0 {
		return nil
	}
	severity := "medium"
	if s.DelayDays > 7 {
		severity = "high"
	}
	reason := s.DisruptionReason
	if reason == "" {
		reason = "Unknown"
	}
	delay := "?"
	if s.DelayDays > 0 {
		delay = fmt.Sprintf("%.0f", s.DelayDays)
	}
	return []RiskRecord{{
		Title:           fmt.Sprintf("Shipping disruption: %s -> %s", s.Origin, s.Destination),
		Description:     fmt.Sprintf("Route disruption (%s). %s. Delay: %s days.", status, reason, delay),
		Severity:        severity,
		AffectedRegion:  fmt.Sprintf("%s - %s", s.Origin, s.Destination),
		EstimatedImpact: "Delivery delays and inventory risk",
		EstimatedCost:   25000,
	}}
}
