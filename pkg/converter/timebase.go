package converter

import (
	"math"
	"math/bits"
)

const (
	// BeatsPerBar is fixed, patterns always span one 4/4 bar
	BeatsPerBar = 4
	// MaxPPQ is the first division that no longer fits the 15-bit header field
	MaxPPQ = 0x8000
)

func checkTimebase(ppq, lengthSteps int) error {
	if ppq <= 0 || ppq >= MaxPPQ {
		return invalid("ppq", "%d is outside (0, %d)", ppq, MaxPPQ)
	}
	if lengthSteps <= 0 {
		return invalid("lengthSteps", "%d must be positive", lengthSteps)
	}
	return nil
}

// TicksPerStep returns the whole number of ticks covered by one step
func TicksPerStep(ppq, lengthSteps int) (int64, error) {
	if err := checkTimebase(ppq, lengthSteps); err != nil {
		return 0, err
	}
	return int64(ppq) * BeatsPerBar / int64(lengthSteps), nil
}

// AbsoluteTick maps a step index to its tick, rounded to the nearest tick.
// The position is derived from the index alone so uneven divisions never drift.
func AbsoluteTick(step, ppq, lengthSteps int) (int64, error) {
	if err := checkTimebase(ppq, lengthSteps); err != nil {
		return 0, err
	}
	if step < 0 {
		return 0, invalid("step", "index %d is negative", step)
	}
	den := uint64(lengthSteps)
	hi, lo := bits.Mul64(uint64(step), uint64(ppq)*BeatsPerBar)
	if hi >= den {
		return 0, invalid("step", "index %d is past the last encodable tick", step)
	}
	q, r := bits.Div64(hi, lo, den)
	if r >= den-r {
		q++
	}
	if q > MaxDelta {
		return 0, invalid("step", "index %d is past the last encodable tick", step)
	}
	return int64(q), nil
}

// DurationTicks converts a length in beats to ticks, truncating
func DurationTicks(beats float64, ppq int) (int64, error) {
	if ppq <= 0 || ppq >= MaxPPQ {
		return 0, invalid("ppq", "%d is outside (0, %d)", ppq, MaxPPQ)
	}
	if math.IsNaN(beats) || math.IsInf(beats, 0) || beats <= 0 {
		return 0, invalid("duration", "%v beats must be a positive number", beats)
	}
	ticks := math.Floor(beats * float64(ppq))
	if ticks > MaxDelta {
		return 0, invalid("duration", "%v beats exceeds the longest encodable delta", beats)
	}
	return int64(ticks), nil
}
