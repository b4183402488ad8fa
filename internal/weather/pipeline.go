package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/protocol"
	"github.com/smukkama/riskwatch/internal/riskengine"
)

const dateLayout = "2006-01-02"

// Cap on aggregated concern/action lists in the exposure report
const maxListEntries = 6

// Pipeline runs the staged weather exposure analysis for one shipment.
// Stages execute in strict order; weather resolution falls back from
// the shared city store to the live provider to the synthetic
// generator, and a resolution failure never aborts the pipeline.
type Pipeline struct {
	locations          LocationResolver
	store              *CityStore
	live               LiveProvider
	engine             riskengine.Computer
	defaultTransitDays int
}

// NewPipeline wires a pipeline. store and live may be nil to disable
// those fallback tiers.
func NewPipeline(
	locations LocationResolver,
	store *CityStore,
	live LiveProvider,
	engine riskengine.Computer,
	defaultTransitDays int,
) *Pipeline {
	if defaultTransitDays < 1 {
		defaultTransitDays = 5
	}
	return &Pipeline{
		locations:          locations,
		store:              store,
		live:               live,
		engine:             engine,
		defaultTransitDays: defaultTransitDays,
	}
}

// Run executes all four stages and returns the exposure report
func (p *Pipeline) Run(ctx context.Context, req Request) (*protocol.ExposureReport, error) {
	supplierCity, oemCity, startDate, transitDays := p.resolveEndpoints(req)

	snapshots := p.buildSnapshots(ctx, supplierCity, oemCity, startDate, transitDays)

	dayRisks := p.computeRisks(snapshots)

	return p.buildReport(supplierCity, oemCity, startDate, transitDays, dayRisks), nil
}

// Stage 1: resolve route endpoints and apply defaults
func (p *Pipeline) resolveEndpoints(req Request) (supplierCity, oemCity string, startDate time.Time, transitDays int) {
	oemCity = "Unknown"
	if req.ManufacturerID != uuid.Nil {
		city, err := p.locations.ManufacturerCity(req.ManufacturerID)
		if err != nil {
			fmt.Printf("Could not resolve manufacturer city for %s: %v\n", req.ManufacturerID, err)
		} else {
			oemCity = city
		}
	}

	supplierCity = oemCity
	if req.SupplierID != uuid.Nil {
		city, err := p.locations.SupplierCity(req.SupplierID)
		if err != nil {
			fmt.Printf("Could not resolve supplier city for %s: %v\n", req.SupplierID, err)
			supplierCity = "Unknown"
		} else {
			supplierCity = city
		}
	}

	startDate = req.StartDate
	if startDate.IsZero() {
		startDate = time.Now()
	}
	startDate = startDate.Truncate(24 * time.Hour)

	transitDays = req.TransitDays
	if transitDays < 1 {
		transitDays = p.defaultTransitDays
	}

	fmt.Printf("Route resolved: %s -> %s over %d days\n", supplierCity, oemCity, transitDays)
	return supplierCity, oemCity, startDate, transitDays
}

// Stage 2+3: assign a city to each transit day and resolve its weather
func (p *Pipeline) buildSnapshots(ctx context.Context, supplierCity, oemCity string, startDate time.Time, transitDays int) []DaySnapshot {
	today := time.Now().Truncate(24 * time.Hour)

	snapshots := make([]DaySnapshot, 0, transitDays)
	for i := 0; i < transitDays; i++ {
		var city, label string
		switch {
		case i == 0:
			city = supplierCity
			label = fmt.Sprintf("%s (Origin)", supplierCity)
		case i == transitDays-1:
			city = oemCity
			label = fmt.Sprintf("%s (Destination)", oemCity)
		case i < transitDays/2:
			city = supplierCity
			label = fmt.Sprintf("In Transit - Day %d", i+1)
		default:
			city = oemCity
			label = fmt.Sprintf("In Transit - Day %d", i+1)
		}

		date := startDate.AddDate(0, 0, i)

		snapshots = append(snapshots, DaySnapshot{
			Date:         date,
			DayNumber:    i + 1,
			Location:     label,
			City:         city,
			Reading:      p.resolveReading(ctx, city, date, i),
			IsHistorical: date.Before(today),
		})
	}

	return snapshots
}

// resolveReading applies the fallback priority: shared city store,
// live provider (when enabled), synthetic generator.
func (p *Pipeline) resolveReading(ctx context.Context, city string, date time.Time, dayIndex int) riskengine.Reading {
	if p.store != nil {
		reading, found, err := p.store.Get(ctx, city)
		if err != nil {
			fmt.Printf("Weather store lookup failed for %s: %v\n", city, err)
		} else if found {
			return reading
		}
	}

	if p.live != nil {
		reading, err := p.live.Fetch(ctx, city, date)
		if err != nil {
			fmt.Printf("Live weather fetch failed for %s: %v\n", city, err)
		} else {
			return reading
		}
	}

	return SyntheticReading(city, dayIndex)
}

// Stage 4a: compute the per-day risk decomposition
func (p *Pipeline) computeRisks(snapshots []DaySnapshot) []DayRisk {
	dayRisks := make([]DayRisk, 0, len(snapshots))

	for _, snap := range snapshots {
		risk := p.engine.ComputeRisk(snap.Reading)

		concern := "No significant risk"
		if len(risk.PrimaryConcerns) > 0 {
			concern = risk.PrimaryConcerns[0]
		}

		dayRisks = append(dayRisks, DayRisk{
			Snapshot: snap,
			Risk:     risk,
			Summary: fmt.Sprintf(
				"Day %d (%s): %s - %s, %.1fC, wind %.0f km/h. Risk: %s (%.0f/100). %s",
				snap.DayNumber,
				snap.Date.Format(dateLayout),
				snap.Location,
				snap.Reading.Condition,
				snap.Reading.TempC,
				snap.Reading.WindKph,
				risk.OverallLevel,
				risk.OverallScore,
				concern,
			),
		})
	}

	return dayRisks
}

// Stage 4b: aggregate the daily risks into the exposure report
func (p *Pipeline) buildReport(supplierCity, oemCity string, startDate time.Time, transitDays int, days []DayRisk) *protocol.ExposureReport {
	report := &protocol.ExposureReport{
		ShipmentMetadata: protocol.ShipmentMetadata{
			SupplierCity: supplierCity,
			OEMCity:      oemCity,
			StartDate:    startDate.Format(dateLayout),
			TransitDays:  transitDays,
		},
		RiskFactorsMax: make(map[string]float64, len(riskengine.Categories)),
		DailyTimeline:  make([]protocol.TimelineEntry, 0, len(days)),
	}
	for _, category := range riskengine.Categories {
		report.RiskFactorsMax[category] = 0
	}

	var (
		peak       *DayRisk
		totalScore float64
		highDates  []string
		concerns   []string
		actions    []string
	)

	for i := range days {
		d := &days[i]
		totalScore += d.Risk.OverallScore

		if peak == nil || d.Risk.OverallScore > peak.Risk.OverallScore {
			peak = d
		}
		if d.Risk.OverallLevel == riskengine.LevelHigh || d.Risk.OverallLevel == riskengine.LevelCritical {
			highDates = append(highDates, d.Snapshot.Date.Format(dateLayout))
		}

		concerns = append(concerns, d.Risk.PrimaryConcerns...)
		actions = append(actions, d.Risk.SuggestedActions...)
		for _, f := range d.Risk.Factors {
			if max, tracked := report.RiskFactorsMax[f.Category]; tracked && f.Score > max {
				report.RiskFactorsMax[f.Category] = f.Score
			}
		}

		concern := "No significant risk"
		if len(d.Risk.PrimaryConcerns) > 0 {
			concern = d.Risk.PrimaryConcerns[0]
		}

		report.DailyTimeline = append(report.DailyTimeline, protocol.TimelineEntry{
			Day:          d.Snapshot.DayNumber,
			Date:         d.Snapshot.Date.Format(dateLayout),
			Location:     d.Snapshot.Location,
			IsHistorical: d.Snapshot.IsHistorical,
			Weather: protocol.DayWeather{
				Condition: d.Snapshot.Reading.Condition,
				TempC:     d.Snapshot.Reading.TempC,
				WindKph:   d.Snapshot.Reading.WindKph,
				PrecipMm:  d.Snapshot.Reading.PrecipMm,
				VisKm:     d.Snapshot.Reading.VisKm,
				Humidity:  d.Snapshot.Reading.Humidity,
			},
			RiskScore:  d.Risk.OverallScore,
			RiskLevel:  d.Risk.OverallLevel,
			KeyConcern: concern,
		})
	}

	summary := protocol.ExposureSummary{
		HighRiskDayCount: len(highDates),
		HighRiskDates:    highDates,
	}
	if len(days) > 0 {
		summary.AverageRiskScore = round1(totalScore / float64(len(days)))
	}
	if peak != nil {
		summary.PeakRiskScore = round1(peak.Risk.OverallScore)
		summary.PeakRiskDay = peak.Snapshot.DayNumber
		summary.PeakRiskDate = peak.Snapshot.Date.Format(dateLayout)
	}
	report.ExposureSummary = summary

	report.PrimaryConcerns = capList(dedupeStrings(concerns), maxListEntries)
	report.RecommendedActions = capList(dedupeStrings(actions), maxListEntries)

	return report
}

// dedupeStrings removes duplicates preserving first-seen order
func dedupeStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
