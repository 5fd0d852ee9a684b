package converter

import (
	"math"
	"slices"
	"strings"
)

// DefaultController receives automation for parameters missing from ControllerMap
const DefaultController = 1

// ControllerMap assigns machine parameters to MIDI CC numbers
var ControllerMap = map[string]uint8{
	"cutoff":    74,
	"resonance": 71,
	"envmod":    72,
	"decay":     73,
	"accent":    75,
}

// ControllerFor returns the CC number for an automation target (case-insensitive)
func ControllerFor(target string) uint8 {
	if cc, ok := ControllerMap[strings.ToLower(target)]; ok {
		return cc
	}
	return DefaultController
}

// CCValue scales a normalized parameter value to 0-127
func CCValue(val float64) (uint8, error) {
	if math.IsNaN(val) {
		return 0, invalid("automation value", "NaN")
	}
	v := math.Round(val * 127)
	switch {
	case v < 0:
		v = 0
	case v > 127:
		v = 127
	}
	return uint8(v), nil
}

// PatternsFor selects the patterns targeting a machine by id or instanceId
func PatternsFor(machine Machine, patterns []Pattern) []Pattern {
	var out []Pattern
	for _, p := range patterns {
		if p.TargetMachine == machine.ID || p.TargetMachine == machine.InstanceID {
			out = append(out, p)
		}
	}
	return out
}

// TrackNameFor returns "<MACHINE_ID>_<instanceId>"
func TrackNameFor(machine Machine) string {
	return strings.ToUpper(machine.ID) + "_" + machine.InstanceID
}

// BuildInstrumentTrack produces the ordered events of one machine's track,
// from the track name to the end-of-track marker
func BuildInstrumentTrack(machine Machine, patterns []Pattern, ppq int, opts Options) ([]Event, error) {
	if machine.MIDIChannel < 1 || machine.MIDIChannel > 16 {
		return nil, invalid("midiChannel", "machine %q uses channel %d, want 1-16", machine.InstanceID, machine.MIDIChannel)
	}
	channel := uint8(machine.MIDIChannel - 1)

	var body []Event
	for _, pattern := range PatternsFor(machine, patterns) {
		events, err := patternEvents(pattern, channel, ppq, opts)
		if err != nil {
			return nil, err
		}
		body = append(body, events...)
	}

	if opts.Overlap == OverlapTruncate {
		truncateOverlaps(body)
	}
	SortEvents(body)

	end := int64(0)
	if len(body) > 0 {
		end = body[len(body)-1].Tick()
	}

	track := make([]Event, 0, len(body)+2)
	track = append(track, TrackName(0, TrackNameFor(machine)))
	track = append(track, body...)
	track = append(track, EndOfTrack(end))
	return track, nil
}

func patternEvents(pattern Pattern, channel uint8, ppq int, opts Options) ([]Event, error) {
	if err := checkTimebase(ppq, pattern.LengthSteps); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(pattern.Steps)*2+len(pattern.Automation))
	for i, step := range pattern.Steps {
		if step.Note < 0 || step.Note > 127 {
			return nil, invalid("note", "step %d has note %d, want 0-127", i, step.Note)
		}
		if step.Vel < 0 || step.Vel > 127 {
			return nil, invalid("vel", "step %d has velocity %d, want 0-127", i, step.Vel)
		}
		on, err := AbsoluteTick(step.T, ppq, pattern.LengthSteps)
		if err != nil {
			return nil, err
		}
		length, err := DurationTicks(step.Duration, ppq)
		if err != nil {
			return nil, err
		}

		// A zero-tick note sorts its NoteOff ahead of its NoteOn
		if length == 0 && opts.Overlap == OverlapTruncate {
			length = 1
		}
		if on+length > MaxDelta {
			return nil, invalid("duration", "step %d ends past the last encodable tick", i)
		}

		events = append(events,
			NoteOn{At: on, Channel: channel, Note: uint8(step.Note), Velocity: uint8(step.Vel)},
			NoteOff{At: on + length, Channel: channel, Note: uint8(step.Note)},
		)
	}

	for _, point := range pattern.Automation {
		at, err := AbsoluteTick(point.At, ppq, pattern.LengthSteps)
		if err != nil {
			return nil, err
		}
		value, err := CCValue(point.Val)
		if err != nil {
			return nil, err
		}
		events = append(events, ControlChange{
			At:         at,
			Channel:    channel,
			Controller: ControllerFor(point.Target),
			Value:      value,
		})
	}

	return events, nil
}

// SortEvents orders events by tick, then NoteOff, ControlChange, NoteOn, Meta,
// then by generation order
func SortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if a.Tick() != b.Tick() {
			if a.Tick() < b.Tick() {
				return -1
			}
			return 1
		}
		return a.priority() - b.priority()
	})
}

// truncateOverlaps pulls each NoteOff back to the next NoteOn of the same
// channel and pitch when that NoteOn arrives before the note has ended
func truncateOverlaps(events []Event) {
	type voice struct{ channel, note uint8 }

	ons := map[voice][]int64{}
	for _, ev := range events {
		if on, ok := ev.(NoteOn); ok {
			k := voice{on.Channel, on.Note}
			ons[k] = append(ons[k], on.At)
		}
	}
	for _, starts := range ons {
		slices.Sort(starts)
	}

	// NoteOn/NoteOff pairs are generated back to back
	for i := 0; i+1 < len(events); i++ {
		on, ok := events[i].(NoteOn)
		if !ok {
			continue
		}
		off, ok := events[i+1].(NoteOff)
		if !ok || off.Channel != on.Channel || off.Note != on.Note {
			continue
		}
		starts := ons[voice{on.Channel, on.Note}]
		j, _ := slices.BinarySearch(starts, on.At+1)
		if j < len(starts) && starts[j] < off.At {
			off.At = starts[j]
			events[i+1] = off
		}
	}
}
