package converter

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// TrackSummary describes one track of a parsed MIDI file
type TrackSummary struct {
	Name     string
	Events   int
	Notes    int
	Channels []uint8
	LastTick int64
}

// Summary describes a parsed MIDI file
type Summary struct {
	Format uint16
	PPQ    int
	BPM    float64
	Tracks []TrackSummary
}

// Inspect parses MIDI data and summarizes its tracks
func Inspect(data []byte) (*Summary, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	summary := &Summary{Format: s.Format(), Tracks: make([]TrackSummary, 0, len(s.Tracks))}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		summary.PPQ = int(mt.Resolution())
	}

	for _, track := range s.Tracks {
		var (
			ts   TrackSummary
			tick int64
			seen [16]bool
		)
		for _, ev := range track {
			tick += int64(ev.Delta)
			ts.Events++

			msg := ev.Message

			var bpm float64
			if summary.BPM == 0 && msg.GetMetaTempo(&bpm) {
				summary.BPM = bpm
			}

			// FF 03 len name
			if len(msg) > 3 && msg[0] == metaStatus && msg[1] == MetaTrackName && ts.Name == "" {
				if _, n, err := DecodeVLQ(msg[2:]); err == nil {
					ts.Name = string(msg[2+n:])
				}
			}

			var ch, key, vel uint8
			if msg.GetNoteOn(&ch, &key, &vel) && vel > 0 {
				ts.Notes++
				if !seen[ch] {
					seen[ch] = true
					ts.Channels = append(ts.Channels, ch+1)
				}
			}
		}
		ts.LastTick = tick
		summary.Tracks = append(summary.Tracks, ts)
	}

	return summary, nil
}
