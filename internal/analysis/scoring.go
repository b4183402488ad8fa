package analysis

import (
	"math"
	"strings"

	"github.com/smukkama/riskwatch/internal/database"
)

// Severity weights; 40 weighted points saturate the score
var severityWeight = map[string]float64{
	database.SeverityCritical: 4,
	database.SeverityHigh:     3,
	database.SeverityMedium:   2,
	database.SeverityLow:      1,
}

const riskScoreScale = 2.5

// Score is the weighted aggregate over one set of detected risks
type Score struct {
	Overall        float64
	Breakdown      map[string]float64 // source type -> weighted points
	SeverityCounts map[string]int
}

// ComputeScore aggregates risks into a 0-100 score. No risks means a
// zero score; unknown severities count as medium.
func ComputeScore(risks []*database.Risk) Score {
	score := Score{
		Breakdown:      make(map[string]float64),
		SeverityCounts: make(map[string]int),
	}

	var weightedSum float64
	for _, r := range risks {
		sev := strings.ToLower(r.Severity)
		if sev == "" {
			sev = database.SeverityMedium
		}
		score.SeverityCounts[sev]++

		w, ok := severityWeight[sev]
		if !ok {
			w = severityWeight[database.SeverityMedium]
		}
		weightedSum += w

		src := r.SourceType
		if src == "" {
			src = "other"
		}
		score.Breakdown[src] += w
	}

	if len(risks) > 0 {
		score.Overall = math.Min(100, round2(weightedSum*riskScoreScale))
	}
	return score
}

// BandForScore maps a score to its discrete band, boundaries inclusive
// on the lower band.
func BandForScore(score float64) string {
	switch {
	case score <= 25:
		return "LOW"
	case score <= 50:
		return "MEDIUM"
	case score <= 75:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
