package analysis

import (
	"testing"

	"github.com/smukkama/riskwatch/internal/database"
)

func riskWith(severity, sourceType string) *database.Risk {
	return &database.Risk{Severity: severity, SourceType: sourceType}
}

func TestComputeScore_Empty(t *testing.T) {
	score := ComputeScore(nil)
	if score.Overall != 0 {
		t.Errorf("Empty risk set must score 0, got %.2f", score.Overall)
	}
	if len(score.Breakdown) != 0 || len(score.SeverityCounts) != 0 {
		t.Errorf("Empty risk set must have empty breakdowns: %+v", score)
	}
}

func TestComputeScore_Weighting(t *testing.T) {
	// 1 critical (4) + 1 high (3) = 7 weighted points -> 17.5
	score := ComputeScore([]*database.Risk{
		riskWith("critical", "weather"),
		riskWith("high", "news"),
	})
	if score.Overall != 17.5 {
		t.Errorf("Expected 17.5, got %.2f", score.Overall)
	}
	if BandForScore(score.Overall) != "LOW" {
		t.Errorf("17.5 must band LOW, got %s", BandForScore(score.Overall))
	}
	if score.Breakdown["weather"] != 4 || score.Breakdown["news"] != 3 {
		t.Errorf("Unexpected breakdown: %+v", score.Breakdown)
	}
	if score.SeverityCounts["critical"] != 1 || score.SeverityCounts["high"] != 1 {
		t.Errorf("Unexpected severity counts: %+v", score.SeverityCounts)
	}
}

func TestComputeScore_TenLowIsStillLow(t *testing.T) {
	risks := make([]*database.Risk, 10)
	for i := range risks {
		risks[i] = riskWith("low", "news")
	}
	score := ComputeScore(risks)
	if score.Overall != 25 {
		t.Errorf("10 low risks must score 25, got %.2f", score.Overall)
	}
	if BandForScore(score.Overall) != "LOW" {
		t.Errorf("25 must band LOW (boundary inclusive), got %s", BandForScore(score.Overall))
	}
}

func TestComputeScore_Saturates(t *testing.T) {
	risks := make([]*database.Risk, 20)
	for i := range risks {
		risks[i] = riskWith("critical", "shipping")
	}
	score := ComputeScore(risks)
	if score.Overall != 100 {
		t.Errorf("20 critical risks must saturate at 100, got %.2f", score.Overall)
	}
	if BandForScore(score.Overall) != "CRITICAL" {
		t.Errorf("100 must band CRITICAL, got %s", BandForScore(score.Overall))
	}
}

func TestComputeScore_UnknownSeverityDefaultsMedium(t *testing.T) {
	score := ComputeScore([]*database.Risk{
		riskWith("", "news"),
		riskWith("urgent", "news"),
	})
	// Two defaults at weight 2 each -> 4 points -> 10
	if score.Overall != 10 {
		t.Errorf("Expected 10, got %.2f", score.Overall)
	}
}

func TestComputeScore_MissingSourceTypeBucketsOther(t *testing.T) {
	score := ComputeScore([]*database.Risk{riskWith("low", "")})
	if score.Breakdown["other"] != 1 {
		t.Errorf("Missing source type must bucket under other: %+v", score.Breakdown)
	}
}

func TestBandForScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, "LOW"},
		{25, "LOW"},
		{25.01, "MEDIUM"},
		{50, "MEDIUM"},
		{50.01, "HIGH"},
		{75, "HIGH"},
		{75.01, "CRITICAL"},
		{100, "CRITICAL"},
	}
	for _, tc := range cases {
		if got := BandForScore(tc.score); got != tc.want {
			t.Errorf("BandForScore(%.2f) = %s, expected %s", tc.score, got, tc.want)
		}
	}
}
