package converter

// Meta event types written by the exporter
const (
	MetaTrackName     = 0x03
	MetaEndOfTrack    = 0x2F
	MetaTempo         = 0x51
	MetaTimeSignature = 0x58
)

// Event is one timed MIDI event of a track.
// The set of implementations is closed: NoteOn, NoteOff, ControlChange and MetaEvent.
type Event interface {
	// Tick is the absolute position from the start of the track
	Tick() int64
	priority() int
}

// Tie-break order for events sharing a tick
const (
	priorityNoteOff = iota
	priorityControlChange
	priorityNoteOn
	priorityMeta
)

// NoteOn starts a note
type NoteOn struct {
	At       int64
	Channel  uint8 // 0-15
	Note     uint8
	Velocity uint8
}

// NoteOff releases a note
type NoteOff struct {
	At      int64
	Channel uint8
	Note    uint8
}

// ControlChange sets a continuous controller
type ControlChange struct {
	At         int64
	Channel    uint8
	Controller uint8
	Value      uint8
}

// MetaEvent carries a non-channel event such as tempo or track name
type MetaEvent struct {
	At   int64
	Type uint8
	Data []byte
}

func (e NoteOn) Tick() int64        { return e.At }
func (e NoteOff) Tick() int64       { return e.At }
func (e ControlChange) Tick() int64 { return e.At }
func (e MetaEvent) Tick() int64     { return e.At }

func (NoteOn) priority() int        { return priorityNoteOn }
func (NoteOff) priority() int       { return priorityNoteOff }
func (ControlChange) priority() int { return priorityControlChange }
func (MetaEvent) priority() int     { return priorityMeta }

// TrackName builds the sequence/track name meta event
func TrackName(tick int64, name string) MetaEvent {
	return MetaEvent{At: tick, Type: MetaTrackName, Data: []byte(name)}
}

// EndOfTrack builds the mandatory closing meta event
func EndOfTrack(tick int64) MetaEvent {
	return MetaEvent{At: tick, Type: MetaEndOfTrack}
}
