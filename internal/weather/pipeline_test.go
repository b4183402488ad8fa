package weather

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/riskwatch/internal/riskengine"
)

type stubLocations struct {
	supplierCity string
	oemCity      string
}

func (s *stubLocations) SupplierCity(id uuid.UUID) (string, error)     { return s.supplierCity, nil }
func (s *stubLocations) ManufacturerCity(id uuid.UUID) (string, error) { return s.oemCity, nil }

// stubEngine returns a fixed score per city so aggregation is predictable
type stubEngine struct {
	scores map[string]float64
}

func (e *stubEngine) ComputeRisk(r riskengine.Reading) riskengine.Summary {
	score := e.scores[r.Condition]
	return riskengine.Summary{
		OverallLevel:     riskengine.LevelForScore(score),
		OverallScore:     score,
		Factors:          []riskengine.Factor{{Category: riskengine.CategoryTransportation, Score: score, Level: riskengine.LevelForScore(score)}},
		PrimaryConcerns:  []string{"concern for " + r.Condition},
		SuggestedActions: []string{"action for " + r.Condition},
	}
}

func newTestPipeline(transitDays int) *Pipeline {
	return NewPipeline(
		&stubLocations{supplierCity: "Hamburg", oemCity: "Munich"},
		nil, // no city store
		nil, // no live provider
		riskengine.NewEngine(),
		transitDays,
	)
}

func TestPipeline_DayCountAndEndpoints(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 10} {
		p := newTestPipeline(5)
		report, err := p.Run(context.Background(), Request{
			SupplierID:     uuid.New(),
			ManufacturerID: uuid.New(),
			TransitDays:    n,
		})
		if err != nil {
			t.Fatalf("Run failed for N=%d: %v", n, err)
		}

		if len(report.DailyTimeline) != n {
			t.Errorf("N=%d: expected %d timeline entries, got %d", n, n, len(report.DailyTimeline))
		}
		if !strings.HasPrefix(report.DailyTimeline[0].Location, "Hamburg") {
			t.Errorf("N=%d: day 1 location %q, expected supplier city", n, report.DailyTimeline[0].Location)
		}
		if n >= 2 {
			last := report.DailyTimeline[n-1]
			if !strings.HasPrefix(last.Location, "Munich") {
				t.Errorf("N=%d: day %d location %q, expected manufacturer city", n, n, last.Location)
			}
		}
	}
}

func TestPipeline_WaypointSplit(t *testing.T) {
	// For N=6 the interior days 2-3 stay at the supplier city
	// (floor(6/2)=3) and days 4-5 move to the manufacturer city.
	p := newTestPipeline(5)
	report, err := p.Run(context.Background(), Request{
		SupplierID:     uuid.New(),
		ManufacturerID: uuid.New(),
		TransitDays:    6,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Interior days carry transit labels; verify via the weather: same
	// city + day index means reproducible readings, so day 2 must match
	// a direct synthetic reading for the supplier city.
	for i, city := range []string{"Hamburg", "Hamburg", "Hamburg", "Munich", "Munich", "Munich"} {
		want := SyntheticReading(city, i)
		got := report.DailyTimeline[i].Weather
		if got.TempC != want.TempC || got.Condition != want.Condition {
			t.Errorf("Day %d: expected reading for %s, got condition=%s temp=%.1f", i+1, city, got.Condition, got.TempC)
		}
	}
}

func TestPipeline_DefaultsApplied(t *testing.T) {
	p := newTestPipeline(5)
	report, err := p.Run(context.Background(), Request{
		SupplierID:     uuid.New(),
		ManufacturerID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.ShipmentMetadata.TransitDays != 5 {
		t.Errorf("Expected default 5 transit days, got %d", report.ShipmentMetadata.TransitDays)
	}
	today := time.Now().Format(dateLayout)
	if report.ShipmentMetadata.StartDate != today {
		t.Errorf("Expected start date %s, got %s", today, report.ShipmentMetadata.StartDate)
	}
	for _, entry := range report.DailyTimeline {
		if entry.IsHistorical {
			t.Errorf("Day %d starting today must not be historical", entry.Day)
		}
	}
}

func TestPipeline_HistoricalFlag(t *testing.T) {
	p := newTestPipeline(5)
	start := time.Now().AddDate(0, 0, -3)
	report, err := p.Run(context.Background(), Request{
		SupplierID:     uuid.New(),
		ManufacturerID: uuid.New(),
		StartDate:      start,
		TransitDays:    5,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Days 1-3 precede today, day 4 is today, day 5 is tomorrow
	for i, entry := range report.DailyTimeline {
		wantHistorical := i < 3
		if entry.IsHistorical != wantHistorical {
			t.Errorf("Day %d: is_historical=%v, expected %v", i+1, entry.IsHistorical, wantHistorical)
		}
	}
}

func TestPipeline_Aggregation(t *testing.T) {
	// Fixed per-condition scores through a stub engine and a seeded
	// city store are overkill here; instead drive the stub engine off
	// synthetic conditions resolved for the route cities.
	engine := &stubEngine{scores: map[string]float64{}}
	day0 := SyntheticReading("Hamburg", 0)
	day1 := SyntheticReading("Hamburg", 1)
	day2 := SyntheticReading("Munich", 2)
	engine.scores[day0.Condition] = 20
	engine.scores[day1.Condition] = 80
	engine.scores[day2.Condition] = 50

	// Conditions can collide between cities; skip the strict checks then.
	distinct := day0.Condition != day1.Condition &&
		day1.Condition != day2.Condition && day0.Condition != day2.Condition

	p := NewPipeline(
		&stubLocations{supplierCity: "Hamburg", oemCity: "Munich"},
		nil,
		nil,
		engine,
		5,
	)
	report, err := p.Run(context.Background(), Request{
		SupplierID:     uuid.New(),
		ManufacturerID: uuid.New(),
		TransitDays:    3,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !distinct {
		t.Skip("synthetic conditions collide for this city pair")
	}

	if report.ExposureSummary.PeakRiskScore != 80 {
		t.Errorf("Expected peak 80, got %.1f", report.ExposureSummary.PeakRiskScore)
	}
	if report.ExposureSummary.PeakRiskDay != 2 {
		t.Errorf("Expected peak day 2, got %d", report.ExposureSummary.PeakRiskDay)
	}
	wantAvg := round1((20.0 + 80.0 + 50.0) / 3.0)
	if report.ExposureSummary.AverageRiskScore != wantAvg {
		t.Errorf("Expected average %.1f, got %.1f", wantAvg, report.ExposureSummary.AverageRiskScore)
	}
	// Scores 80 (critical) and 50 (high) are high-risk days
	if report.ExposureSummary.HighRiskDayCount != 2 {
		t.Errorf("Expected 2 high-risk days, got %d", report.ExposureSummary.HighRiskDayCount)
	}
	if report.RiskFactorsMax[riskengine.CategoryTransportation] != 80 {
		t.Errorf("Expected transportation max 80, got %.1f", report.RiskFactorsMax[riskengine.CategoryTransportation])
	}
}

func TestPipeline_ConcernsCappedAndDeduplicated(t *testing.T) {
	// One concern per distinct condition; duplicates collapse
	p := newTestPipeline(5)
	report, err := p.Run(context.Background(), Request{
		SupplierID:     uuid.New(),
		ManufacturerID: uuid.New(),
		TransitDays:    10,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.PrimaryConcerns) > maxListEntries {
		t.Errorf("Concerns exceed cap: %d", len(report.PrimaryConcerns))
	}
	if len(report.RecommendedActions) > maxListEntries {
		t.Errorf("Actions exceed cap: %d", len(report.RecommendedActions))
	}
	seen := map[string]bool{}
	for _, c := range report.PrimaryConcerns {
		if seen[c] {
			t.Errorf("Duplicate concern: %s", c)
		}
		seen[c] = true
	}
}
