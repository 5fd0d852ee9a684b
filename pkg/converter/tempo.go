package converter

import "math"

// maxTempo is the largest value of the 24-bit microseconds-per-quarter field
const maxTempo = 0xFFFFFF

// MicrosecondsPerQuarter converts beats per minute to the tempo meta value
func MicrosecondsPerQuarter(bpm float64) (uint32, error) {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return 0, invalid("bpm", "%v must be a positive number", bpm)
	}
	us := math.Round(60000000.0 / bpm)
	if us > maxTempo || us < 1 {
		return 0, invalid("bpm", "%v does not fit the tempo field", bpm)
	}
	return uint32(us), nil
}

// BuildTempoTrack creates track 0: tempo, 4/4 time signature, end of track
func BuildTempoTrack(bpm float64) ([]Event, error) {
	us, err := MicrosecondsPerQuarter(bpm)
	if err != nil {
		return nil, err
	}

	tempo := MetaEvent{
		Type: MetaTempo,
		Data: []byte{byte(us >> 16), byte(us >> 8), byte(us)},
	}
	// numerator 4, denominator 2^2, 24 clocks per click, 8 32nds per quarter
	timeSig := MetaEvent{
		Type: MetaTimeSignature,
		Data: []byte{0x04, 0x02, 0x18, 0x08},
	}

	return []Event{tempo, timeSig, EndOfTrack(0)}, nil
}
