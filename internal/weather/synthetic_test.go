package weather

import (
	"testing"
)

func TestSyntheticReading_Deterministic(t *testing.T) {
	for day := 0; day < 10; day++ {
		a := SyntheticReading("Shanghai", day)
		b := SyntheticReading("Shanghai", day)
		if a != b {
			t.Errorf("Day %d: repeated generation differs: %+v vs %+v", day, a, b)
		}
	}
}

func TestSyntheticReading_CaseInsensitiveCity(t *testing.T) {
	a := SyntheticReading("Shanghai", 3)
	b := SyntheticReading("SHANGHAI", 3)
	c := SyntheticReading("shanghai", 3)
	if a != b || a != c {
		t.Errorf("City casing changed the reading: %+v / %+v / %+v", a, b, c)
	}
}

func TestSyntheticReading_DistinctDays(t *testing.T) {
	// Different day indices must not all collapse to one reading
	distinct := map[float64]bool{}
	for day := 0; day < 20; day++ {
		r := SyntheticReading("Rotterdam", day)
		distinct[r.TempC*1000+r.WindKph] = true
	}
	if len(distinct) < 2 {
		t.Error("Expected varying readings across days")
	}
}

func TestSyntheticReading_Bounds(t *testing.T) {
	cities := []string{"Oslo", "Mumbai", "Santiago", "Nairobi", "Seattle"}
	for _, city := range cities {
		for day := 0; day < 30; day++ {
			r := SyntheticReading(city, day)
			if r.WindKph < 0 {
				t.Errorf("%s day %d: negative wind %.1f", city, day, r.WindKph)
			}
			if r.PrecipMm < 0 {
				t.Errorf("%s day %d: negative precipitation %.1f", city, day, r.PrecipMm)
			}
			if r.VisKm < 0.5 {
				t.Errorf("%s day %d: visibility %.1f below floor", city, day, r.VisKm)
			}
			if r.Humidity < 20 || r.Humidity > 100 {
				t.Errorf("%s day %d: humidity %d out of range", city, day, r.Humidity)
			}
			if r.Condition == "" {
				t.Errorf("%s day %d: empty condition", city, day)
			}
		}
	}
}

func TestScenarioWeightsSumTo100(t *testing.T) {
	total := 0
	for _, s := range scenarios {
		total += s.weight
	}
	if total != 100 {
		t.Errorf("Scenario weights sum to %d, expected 100", total)
	}
}
