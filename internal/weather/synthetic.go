package weather

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"github.com/smukkama/riskwatch/internal/riskengine"
)

// scenario is one canonical weather pattern with a selection weight
type scenario struct {
	condition string
	tempC     float64
	windKph   float64
	precipMm  float64
	visKm     float64
	humidity  int
	weight    int
}

// Canonical conditions; weights sum to 100
var scenarios = []scenario{
	{"Sunny", 28.0, 12.0, 0.0, 10.0, 45, 30},
	{"Partly Cloudy", 24.0, 18.0, 0.5, 9.0, 60, 20},
	{"Overcast", 20.0, 25.0, 2.0, 7.0, 72, 15},
	{"Moderate Rain", 18.0, 35.0, 12.0, 4.0, 88, 15},
	{"Heavy Rain", 17.0, 55.0, 28.0, 2.0, 95, 8},
	{"Thunderstorm", 22.0, 72.0, 40.0, 1.5, 97, 5},
	{"Fog", 15.0, 8.0, 0.2, 0.8, 92, 4},
	{"Light Snow", -2.0, 22.0, 3.0, 3.0, 80, 3},
}

// SyntheticReading generates a reproducible weather reading for a city
// and transit day. The same (city, day) pair always yields the same
// values regardless of city casing.
func SyntheticReading(city string, dayIndex int) riskengine.Reading {
	rng := rand.New(rand.NewSource(syntheticSeed(city, dayIndex)))

	s := pickScenario(rng)

	return riskengine.Reading{
		Condition: s.condition,
		TempC:     round1(s.tempC + uniform(rng, -2, 2)),
		WindKph:   round1(math.Max(0, s.windKph+uniform(rng, -5, 5))),
		PrecipMm:  round1(math.Max(0, s.precipMm+uniform(rng, -1, 2))),
		VisKm:     round1(math.Max(0.5, s.visKm+uniform(rng, -0.5, 0.5))),
		Humidity:  clampHumidity(s.humidity + rng.Intn(11) - 5),
	}
}

func syntheticSeed(city string, dayIndex int) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(city)))
	return int64(h.Sum64()) + int64(dayIndex)
}

func pickScenario(rng *rand.Rand) scenario {
	total := 0
	for _, s := range scenarios {
		total += s.weight
	}

	pick := rng.Intn(total)
	for _, s := range scenarios {
		pick -= s.weight
		if pick < 0 {
			return s
		}
	}
	return scenarios[0]
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampHumidity(h int) int {
	if h < 20 {
		return 20
	}
	if h > 100 {
		return 100
	}
	return h
}
