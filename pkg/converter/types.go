// Package converter turns a LiveTechno project into a Standard MIDI File
package converter

// Meta holds project-wide timing information
type Meta struct {
	Name      string  `json:"name,omitempty"`
	BPM       float64 `json:"bpm"`
	Signature string  `json:"signature,omitempty"`
	PPQ       int     `json:"ppq"`
	Created   string  `json:"created,omitempty"`
	Modified  string  `json:"modified,omitempty"`
}

// Position is the machine's location on the studio canvas
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Machine is an instrument instance placed in the project
type Machine struct {
	ID          string             `json:"id"`
	InstanceID  string             `json:"instanceId"`
	Label       string             `json:"label,omitempty"`
	MIDIChannel int                `json:"midiChannel"` // 1-16
	Position    *Position          `json:"position,omitempty"`
	Params      map[string]float64 `json:"params,omitempty"`
}

// Step represents a single note in a pattern
type Step struct {
	T        int     `json:"t"`        // Step index within the pattern
	Note     int     `json:"note"`     // MIDI note number (0-127)
	Vel      int     `json:"vel"`      // Velocity (0-127)
	Duration float64 `json:"duration"` // Length in beats
}

// AutomationPoint sets a machine parameter at a step
type AutomationPoint struct {
	Target string  `json:"target"`
	At     int     `json:"at"`
	Val    float64 `json:"val"` // Normalized 0.0-1.0
}

// Pattern represents a step sequence bound to a machine
type Pattern struct {
	Name          string            `json:"name,omitempty"`
	TargetMachine string            `json:"targetMachine"` // Machine id or instanceId
	LengthSteps   int               `json:"lengthSteps"`
	ResolutionPPQ int               `json:"resolutionPPQ,omitempty"`
	Steps         []Step            `json:"steps"`
	Automation    []AutomationPoint `json:"automation,omitempty"`
}

// Project is the complete studio state handed to the exporter
type Project struct {
	Meta     Meta      `json:"meta"`
	Machines []Machine `json:"machines"`
	Patterns []Pattern `json:"patterns"`
}

// OverlapPolicy decides what happens when a note is retriggered
// on the same channel and pitch before its previous instance ends
type OverlapPolicy int

const (
	// OverlapKeep emits notes exactly as the patterns describe them
	OverlapKeep OverlapPolicy = iota
	// OverlapTruncate ends the sounding note where the next one starts
	// and lengthens notes shorter than one tick to a single tick
	OverlapTruncate
)

// String returns the policy name
func (p OverlapPolicy) String() string {
	switch p {
	case OverlapKeep:
		return "keep"
	case OverlapTruncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// ParseOverlapPolicy maps a policy name to its value
func ParseOverlapPolicy(name string) (OverlapPolicy, error) {
	switch name {
	case "", "keep":
		return OverlapKeep, nil
	case "truncate":
		return OverlapTruncate, nil
	default:
		return OverlapKeep, &ValidationError{Field: "overlap", Reason: "unknown policy " + name}
	}
}

// Options tunes an export
type Options struct {
	Overlap OverlapPolicy
}
