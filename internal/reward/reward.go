package reward

import (
	"math"
	"math/rand"
)

// Formula constants. These are the authoritative tuning values for walk
// rewards; changing any of them changes every payout in the app.
const (
	DistanceRate   = 10.0 // points per kilometer
	StepsRate      = 0.01 // points per step
	StreakRate     = 0.2  // daily multiplier growth per streak day
	StreakCap      = 2.0  // daily multiplier ceiling
	EfficiencyRate = 0.3  // multiplier growth per efficiency level
	EnduranceRate  = 0.6  // multiplier growth per endurance level

	BaseLuckChance   = 0.05 // lucky-walk probability at luck level 0
	LuckChancePerLvl = 0.02 // additional probability per luck level

	// Speed bands in km/h. Full credit for a normal walking pace, partial
	// credit for slow strolls and brisk jogs, nothing outside plausible
	// walking speeds.
	NormalSpeedMin = 5.0
	NormalSpeedMax = 12.0
	SlowSpeedMin   = 1.0
	FastSpeedMax   = 20.0

	PartialSpeedFactor = 0.7
)

// Source supplies uniform random draws in [0, 1). *rand.Rand satisfies it;
// tests inject fixed sequences to pin luck outcomes.
type Source interface {
	Float64() float64
}

// NewSource returns a Source seeded for production use.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Input carries the terminal session measurements and the user attributes the
// formula depends on. Distances are kilometers and speeds km/h here; the
// session engine converts from its internal meters / m/s at this boundary.
type Input struct {
	DistanceKm      float64
	Steps           int
	AvgSpeedKmh     float64
	DailyStreak     int
	EnduranceLevel  int
	EfficiencyLevel int
	LuckLevel       int
}

// Breakdown is the full derivation of a reward, kept so completed walks can
// persist the multipliers that produced their payout.
type Breakdown struct {
	Total                float64 `json:"total"`
	Base                 float64 `json:"base"`
	SpeedFactor          float64 `json:"speed_factor"`
	DailyMultiplier      float64 `json:"daily_multiplier"`
	EfficiencyMultiplier float64 `json:"efficiency_multiplier"`
	EnduranceMultiplier  float64 `json:"endurance_multiplier"`
	LuckChance           float64 `json:"luck_chance"`
	Lucky                bool    `json:"lucky"`
	LuckMultiplier       float64 `json:"luck_multiplier"`
}

// SpeedFactor maps average speed in km/h onto reward credit: 1.0 inside the
// normal walking band, 0.7 in the slow and fast bands, 0 outside [1, 20].
func SpeedFactor(kmh float64) float64 {
	switch {
	case kmh >= NormalSpeedMin && kmh <= NormalSpeedMax:
		return 1.0
	case kmh >= SlowSpeedMin && kmh < NormalSpeedMin:
		return PartialSpeedFactor
	case kmh > NormalSpeedMax && kmh <= FastSpeedMax:
		return PartialSpeedFactor
	default:
		return 0
	}
}

// Calculate computes the reward for a finished walk. Pure except for draws
// taken from rng; the caller credits the resulting points.
func Calculate(in Input, rng Source) Breakdown {
	bd := Breakdown{
		SpeedFactor:          SpeedFactor(in.AvgSpeedKmh),
		DailyMultiplier:      math.Min(1+float64(in.DailyStreak)*StreakRate, StreakCap),
		EfficiencyMultiplier: 1 + float64(in.EfficiencyLevel)*EfficiencyRate,
		EnduranceMultiplier:  1 + float64(in.EnduranceLevel)*EnduranceRate,
		LuckMultiplier:       1,
	}

	bd.Base = (in.DistanceKm*DistanceRate + float64(in.Steps)*StepsRate) * bd.SpeedFactor
	total := bd.Base * bd.DailyMultiplier * bd.EfficiencyMultiplier * bd.EnduranceMultiplier

	bd.LuckChance = math.Min(BaseLuckChance+float64(in.LuckLevel)*LuckChancePerLvl, 1)
	if rng.Float64() < bd.LuckChance {
		bd.Lucky = true
		bd.LuckMultiplier = 1.5
		if rng.Float64() < 0.5 {
			bd.LuckMultiplier = 2.0
		}
		total *= bd.LuckMultiplier
	}

	bd.Total = round2(total)
	return bd
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
