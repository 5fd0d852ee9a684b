package converter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// SMF chunk framing
const (
	HeaderChunk  = "MThd"
	TrackChunk   = "MTrk"
	HeaderLength = 6
	FormatMulti  = 1
	maxTracks    = 0xFFFF
)

// MIDIConverter renders projects as format 1 Standard MIDI Files
type MIDIConverter struct {
	opts Options
}

// NewMIDIConverter creates a MIDI converter
func NewMIDIConverter(opts Options) *MIDIConverter {
	return &MIDIConverter{opts: opts}
}

// GenerateMIDI creates MIDI data from a Project.
// Nothing is returned unless every track encodes.
func (m *MIDIConverter) GenerateMIDI(project *Project) ([]byte, error) {
	if project == nil {
		return nil, errors.New("nil project")
	}
	ppq := project.Meta.PPQ
	if ppq <= 0 || ppq >= MaxPPQ {
		return nil, invalid("ppq", "%d is outside (0, %d)", ppq, MaxPPQ)
	}
	if len(project.Machines)+1 > maxTracks {
		return nil, invalid("machines", "%d machines exceed the track limit", len(project.Machines))
	}

	tracks := make([][]Event, 0, len(project.Machines)+1)

	tempo, err := BuildTempoTrack(project.Meta.BPM)
	if err != nil {
		return nil, err
	}
	tracks = append(tracks, tempo)

	for _, machine := range project.Machines {
		track, err := BuildInstrumentTrack(machine, project.Patterns, ppq, m.opts)
		if err != nil {
			return nil, fmt.Errorf("machine %s: %w", TrackNameFor(machine), err)
		}
		tracks = append(tracks, track)
	}

	return AssembleFile(ppq, tracks)
}

// WriteMIDIFile writes the exported project to a file
func (m *MIDIConverter) WriteMIDIFile(project *Project, filename string) error {
	data, err := m.GenerateMIDI(project)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// Export renders a project with the given options
func Export(project *Project, opts Options) ([]byte, error) {
	return NewMIDIConverter(opts).GenerateMIDI(project)
}

// AssembleFile frames the header and one MTrk chunk per track
func AssembleFile(ppq int, tracks [][]Event) ([]byte, error) {
	if ppq <= 0 || ppq >= MaxPPQ {
		return nil, invalid("ppq", "%d is outside (0, %d)", ppq, MaxPPQ)
	}
	if len(tracks) > maxTracks {
		return nil, invalid("tracks", "%d tracks exceed the header limit", len(tracks))
	}

	out := make([]byte, 0, 14+len(tracks)*64)
	out = append(out, HeaderChunk...)
	out = binary.BigEndian.AppendUint32(out, HeaderLength)
	out = binary.BigEndian.AppendUint16(out, FormatMulti)
	out = binary.BigEndian.AppendUint16(out, uint16(len(tracks)))
	out = binary.BigEndian.AppendUint16(out, uint16(ppq))

	for i, events := range tracks {
		data, err := SerializeTrack(events)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		if uint64(len(data)) > 0xFFFFFFFF {
			return nil, &EncodingError{Reason: fmt.Sprintf("track %d is too long", i)}
		}
		out = append(out, TrackChunk...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
		out = append(out, data...)
	}
	return out, nil
}
