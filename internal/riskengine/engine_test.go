package riskengine

import (
	"testing"
)

func TestComputeRisk_CalmWeatherIsLow(t *testing.T) {
	e := NewEngine()
	summary := e.ComputeRisk(Reading{
		Condition: "Sunny",
		TempC:     25,
		WindKph:   8,
		PrecipMm:  0,
		VisKm:     10,
		Humidity:  45,
	})

	if summary.OverallLevel != LevelLow {
		t.Errorf("Expected low level, got %s (score %.1f)", summary.OverallLevel, summary.OverallScore)
	}
	if len(summary.Factors) != len(Categories) {
		t.Errorf("Expected %d factors, got %d", len(Categories), len(summary.Factors))
	}
	if len(summary.PrimaryConcerns) != 1 || summary.PrimaryConcerns[0] != "No significant risk" {
		t.Errorf("Expected placeholder concern, got %v", summary.PrimaryConcerns)
	}
}

func TestComputeRisk_StormIsSevere(t *testing.T) {
	e := NewEngine()
	summary := e.ComputeRisk(Reading{
		Condition: "Thunderstorm",
		TempC:     22,
		WindKph:   72,
		PrecipMm:  40,
		VisKm:     1.5,
		Humidity:  97,
	})

	if summary.OverallLevel != LevelCritical {
		t.Errorf("Expected critical level, got %s", summary.OverallLevel)
	}
	if summary.OverallScore > 100 || summary.OverallScore < 0 {
		t.Errorf("Score out of range: %.1f", summary.OverallScore)
	}
	if len(summary.PrimaryConcerns) == 0 {
		t.Error("Expected concerns for severe weather")
	}
	if len(summary.SuggestedActions) == 0 {
		t.Error("Expected suggested actions for severe weather")
	}
}

func TestComputeRisk_ScoresAlwaysBounded(t *testing.T) {
	e := NewEngine()
	readings := []Reading{
		{Condition: "Thunderstorm", TempC: -40, WindKph: 500, PrecipMm: 1000, VisKm: 0, Humidity: 100},
		{Condition: "Sunny", TempC: 60, WindKph: 0, PrecipMm: 0, VisKm: 50, Humidity: 0},
		{},
	}

	for _, r := range readings {
		summary := e.ComputeRisk(r)
		if summary.OverallScore < 0 || summary.OverallScore > 100 {
			t.Errorf("Overall score out of range for %+v: %.1f", r, summary.OverallScore)
		}
		for _, f := range summary.Factors {
			if f.Score < 0 || f.Score > 100 {
				t.Errorf("Factor %s score out of range: %.1f", f.Category, f.Score)
			}
		}
	}
}

func TestLevelForScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		level string
	}{
		{0, LevelLow},
		{24.9, LevelLow},
		{25, LevelMedium},
		{49.9, LevelMedium},
		{50, LevelHigh},
		{74.9, LevelHigh},
		{75, LevelCritical},
		{100, LevelCritical},
	}

	for _, c := range cases {
		if got := LevelForScore(c.score); got != c.level {
			t.Errorf("LevelForScore(%.1f) = %s, expected %s", c.score, got, c.level)
		}
	}
}
