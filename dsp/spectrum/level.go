package spectrum

import (
	"math"

	"github.com/cwbudde/algo-firstream/dsp/core"
)

const (
	// MinDB is the floor for dB conversions so silence stays finite.
	MinDB = -200.0
	// MeterFloorDB is the level at and below which a meter reads zero.
	MeterFloorDB = -60.0
)

// LevelDB returns the mean absolute amplitude of frame in dB, floored at
// MinDB. An empty or silent frame reads MinDB.
func LevelDB(frame []float32) float64 {
	if len(frame) == 0 {
		return MinDB
	}

	var sum float64
	for _, v := range frame {
		sum += math.Abs(float64(v))
	}

	return ToDB(sum / float64(len(frame)))
}

// NormalizeLevel maps a dB level onto a 0..1 meter scale: 0 at or below
// MeterFloorDB, 1 at 0 dB and above, following a square-root curve of the
// linear amplitude in between.
func NormalizeLevel(db float64) float64 {
	if math.IsNaN(db) || db <= MeterFloorDB {
		return 0
	}
	if db >= 0 {
		return 1
	}

	floor := core.DBToLinear(MeterFloorDB)
	amp := core.DBToLinear(db)

	return math.Sqrt((amp - floor) / (1 - floor))
}
