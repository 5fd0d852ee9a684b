package converter

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

const (
	// MaxDelta is the largest value a 4-byte variable-length quantity holds
	MaxDelta = 0x0FFFFFFF

	metaStatus = 0xFF
	vlqMask    = 0x7F
	vlqMore    = 0x80
)

// AppendVLQ appends the MIDI variable-length encoding of v to dst
func AppendVLQ(dst []byte, v int64) ([]byte, error) {
	if v < 0 {
		return dst, &EncodingError{Reason: fmt.Sprintf("negative quantity %d", v)}
	}
	if v > MaxDelta {
		return dst, &EncodingError{Reason: fmt.Sprintf("quantity %d needs more than 4 bytes", v)}
	}

	var buf [4]byte
	i := len(buf) - 1
	buf[i] = byte(v & vlqMask)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		buf[i] = byte(v&vlqMask) | vlqMore
	}
	return append(dst, buf[i:]...), nil
}

// EncodeVLQ returns the variable-length encoding of v
func EncodeVLQ(v int64) ([]byte, error) {
	return AppendVLQ(nil, v)
}

// DecodeVLQ reads one variable-length quantity and reports how many bytes it used
func DecodeVLQ(data []byte) (value int64, n int, err error) {
	for n < len(data) && n < 4 {
		b := data[n]
		n++
		value = value<<7 | int64(b&vlqMask)
		if b&vlqMore == 0 {
			return value, n, nil
		}
	}
	if n == 4 {
		return 0, n, errors.New("variable-length quantity longer than 4 bytes")
	}
	return 0, n, errors.New("truncated variable-length quantity")
}

// SerializeTrack encodes sorted events as delta-time prefixed MTrk data
func SerializeTrack(events []Event) ([]byte, error) {
	var (
		out  = make([]byte, 0, len(events)*4)
		prev int64
		err  error
	)
	for i, ev := range events {
		out, err = AppendVLQ(out, ev.Tick()-prev)
		if err != nil {
			return nil, fmt.Errorf("event %d at tick %d: %w", i, ev.Tick(), err)
		}
		prev = ev.Tick()

		out, err = appendBody(out, ev)
		if err != nil {
			return nil, fmt.Errorf("event %d at tick %d: %w", i, ev.Tick(), err)
		}
	}
	return out, nil
}

func appendBody(dst []byte, ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case NoteOn:
		return append(dst, midi.NoteOn(e.Channel, e.Note, e.Velocity)...), nil
	case NoteOff:
		return append(dst, midi.NoteOff(e.Channel, e.Note)...), nil
	case ControlChange:
		return append(dst, midi.ControlChange(e.Channel, e.Controller, e.Value)...), nil
	case MetaEvent:
		var err error
		dst, err = AppendVLQ(append(dst, metaStatus, e.Type), int64(len(e.Data)))
		if err != nil {
			return nil, err
		}
		return append(dst, e.Data...), nil
	default:
		return nil, &EncodingError{Reason: fmt.Sprintf("unsupported event %T", ev)}
	}
}
