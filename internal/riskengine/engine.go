// Package riskengine decomposes a single weather reading into scored
// risk factors for the shipment exposure pipeline. The pipeline depends
// only on the Computer interface; the default engine is a rule-based
// implementation over the fixed category set.
package riskengine

import (
	"fmt"
	"math"
)

// Risk levels shared by factors and the overall summary
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Fixed factor categories
const (
	CategoryTransportation = "transportation"
	CategoryPowerOutage    = "power_outage"
	CategoryProduction     = "production"
	CategoryPortAndRoute   = "port_and_route"
	CategoryRawMaterial    = "raw_material_delay"
)

// Categories lists all factor categories in presentation order
var Categories = []string{
	CategoryTransportation,
	CategoryPowerOutage,
	CategoryProduction,
	CategoryPortAndRoute,
	CategoryRawMaterial,
}

// Reading is one day's weather observation for a city
type Reading struct {
	Condition string  `json:"condition"`
	TempC     float64 `json:"temp_c"`
	WindKph   float64 `json:"wind_kph"`
	PrecipMm  float64 `json:"precip_mm"`
	VisKm     float64 `json:"vis_km"`
	Humidity  int     `json:"humidity"`
}

// Factor is one scored risk dimension of a reading
type Factor struct {
	Category   string
	Level      string
	Score      float64 // 0-100
	Summary    string
	Detail     string
	Mitigation string
}

// Summary is the full risk decomposition of one reading
type Summary struct {
	OverallLevel     string
	OverallScore     float64 // 0-100, max over factors
	Factors          []Factor
	PrimaryConcerns  []string
	SuggestedActions []string
}

// Computer turns a weather reading into a risk summary
type Computer interface {
	ComputeRisk(reading Reading) Summary
}

// Engine is the default rule-based Computer
type Engine struct{}

// NewEngine creates the default risk engine
func NewEngine() *Engine {
	return &Engine{}
}

func clampScore(s float64) float64 {
	return math.Min(100, math.Max(0, s))
}

// LevelForScore maps a numeric score to its discrete level
func LevelForScore(score float64) string {
	switch {
	case score < 25:
		return LevelLow
	case score < 50:
		return LevelMedium
	case score < 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// ComputeRisk scores the fixed factor categories for one reading
func (e *Engine) ComputeRisk(r Reading) Summary {
	factors := []Factor{
		e.transportation(r),
		e.powerOutage(r),
		e.production(r),
		e.portAndRoute(r),
		e.rawMaterialDelay(r),
	}

	overall := 0.0
	var concerns []string
	var actions []string
	for _, f := range factors {
		if f.Score > overall {
			overall = f.Score
		}
		if f.Level == LevelHigh || f.Level == LevelCritical {
			concerns = append(concerns, f.Summary)
			if f.Mitigation != "" {
				actions = append(actions, f.Mitigation)
			}
		}
	}
	if len(concerns) == 0 {
		concerns = []string{"No significant risk"}
	}

	return Summary{
		OverallLevel:     LevelForScore(overall),
		OverallScore:     clampScore(overall),
		Factors:          factors,
		PrimaryConcerns:  dedupe(concerns),
		SuggestedActions: dedupe(actions),
	}
}

func (e *Engine) transportation(r Reading) Factor {
	score := r.WindKph*0.6 + r.PrecipMm*1.2
	if r.VisKm < 2 {
		score += 25
	} else if r.VisKm < 5 {
		score += 10
	}
	score = clampScore(score)

	return Factor{
		Category:   CategoryTransportation,
		Level:      LevelForScore(score),
		Score:      score,
		Summary:    fmt.Sprintf("Road transport exposure: wind %.0f km/h, precipitation %.1f mm, visibility %.1f km", r.WindKph, r.PrecipMm, r.VisKm),
		Detail:     "Combined wind, precipitation and visibility load on road freight",
		Mitigation: "Add schedule buffer and brief drivers on adverse conditions",
	}
}

func (e *Engine) powerOutage(r Reading) Factor {
	// Gusting winds and storms drive outage likelihood
	score := (r.WindKph - 30) * 2
	if r.Condition == "Thunderstorm" {
		score += 30
	}
	score = clampScore(score)

	return Factor{
		Category:   CategoryPowerOutage,
		Level:      LevelForScore(score),
		Score:      score,
		Summary:    fmt.Sprintf("Grid outage exposure at wind %.0f km/h (%s)", r.WindKph, r.Condition),
		Detail:     "Sustained wind above 30 km/h increases outage probability",
		Mitigation: "Verify backup power readiness at affected facilities",
	}
}

func (e *Engine) production(r Reading) Factor {
	score := 0.0
	if r.TempC < 0 {
		score += (-r.TempC) * 4
	} else if r.TempC > 35 {
		score += (r.TempC - 35) * 5
	}
	if r.Humidity > 90 {
		score += float64(r.Humidity-90) * 3
	}
	score = clampScore(score)

	return Factor{
		Category:   CategoryProduction,
		Level:      LevelForScore(score),
		Score:      score,
		Summary:    fmt.Sprintf("Production exposure at %.1f°C, humidity %d%%", r.TempC, r.Humidity),
		Detail:     "Temperature extremes and saturation affect line throughput",
		Mitigation: "Pre-stage climate controls and adjust shift planning",
	}
}

func (e *Engine) portAndRoute(r Reading) Factor {
	score := r.WindKph * 0.8
	if r.PrecipMm > 20 {
		score += 20
	}
	if r.VisKm < 1 {
		score += 30
	}
	score = clampScore(score)

	return Factor{
		Category:   CategoryPortAndRoute,
		Level:      LevelForScore(score),
		Score:      score,
		Summary:    fmt.Sprintf("Port and route exposure: wind %.0f km/h, precipitation %.1f mm", r.WindKph, r.PrecipMm),
		Detail:     "Crane operations suspend in high wind; berthing slows in low visibility",
		Mitigation: "Confirm port operating status and reserve alternate routing",
	}
}

func (e *Engine) rawMaterialDelay(r Reading) Factor {
	// Derived from the worst of the upstream transport conditions
	score := clampScore(r.WindKph*0.4 + r.PrecipMm*0.8)

	return Factor{
		Category:   CategoryRawMaterial,
		Level:      LevelForScore(score),
		Score:      score,
		Summary:    fmt.Sprintf("Inbound material delay exposure under %s conditions", r.Condition),
		Detail:     "Upstream weather propagates into inbound material lead times",
		Mitigation: "Review safety stock for weather-exposed materials",
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
