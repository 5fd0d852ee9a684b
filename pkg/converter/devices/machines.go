// Package devices provides the catalog of machines a project can hold
package devices

import (
	"fmt"
	"strings"

	"github.com/livetechno/livetechno/pkg/converter"
)

// Machine ids as they appear in project files
const (
	RD9ID = "behringer.rd9"
	TD3ID = "behringer.td3"
)

// Category groups machines by role
type Category string

const (
	CategoryDrum  Category = "drum"
	CategorySynth Category = "synth"
)

// Instrument is a drum voice triggered by a fixed note
type Instrument struct {
	Name string `json:"name"`
	Note int    `json:"note"`
}

// Device describes a machine model
type Device struct {
	ID             string       `json:"id"`
	Label          string       `json:"label"`
	Vendor         string       `json:"vendor"`
	Category       Category     `json:"category"`
	DefaultChannel int          `json:"defaultChannel"`
	Parameters     []string     `json:"parameters"`
	Notes          []Instrument `json:"notes,omitempty"`
	Aliases        []string     `json:"-"`
}

// NewRD9 returns the Behringer RD-9 drum machine (TR-909 clone)
func NewRD9() Device {
	return Device{
		ID:             RD9ID,
		Label:          "Behringer RD-9",
		Vendor:         "Behringer",
		Category:       CategoryDrum,
		DefaultChannel: 10,
		Parameters:     []string{"accent", "decay"},
		Notes: []Instrument{
			{"BD", 36}, {"SD", 38}, {"LT", 43}, {"MT", 47}, {"HT", 50}, {"RS", 37},
			{"CP", 39}, {"CB", 56}, {"CY", 49}, {"OH", 46}, {"CH", 42},
		},
		Aliases: []string{"rd9", "rd-9"},
	}
}

// NewTD3 returns the Behringer TD-3 bass synth (TB-303 clone)
func NewTD3() Device {
	return Device{
		ID:             TD3ID,
		Label:          "Behringer TD-3",
		Vendor:         "Behringer",
		Category:       CategorySynth,
		DefaultChannel: 1,
		Parameters:     []string{"cutoff", "resonance", "envmod", "decay", "accent"},
		Aliases:        []string{"td3", "td-3"},
	}
}

// Catalog lists every known machine
func Catalog() []Device {
	return []Device{NewRD9(), NewTD3()}
}

// Lookup finds a machine by id or short alias (case-insensitive)
func Lookup(name string) (Device, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range Catalog() {
		if d.ID == name {
			return d, true
		}
		for _, alias := range d.Aliases {
			if alias == name {
				return d, true
			}
		}
	}
	return Device{}, false
}

// NewInstance places a machine in a project on its default channel
func (d Device) NewInstance(n int) converter.Machine {
	return converter.Machine{
		ID:          d.ID,
		InstanceID:  fmt.Sprintf("%s_%d", d.ID, n),
		Label:       d.Label,
		MIDIChannel: d.DefaultChannel,
		Params:      map[string]float64{},
	}
}

// Controllers returns the CC number used for each automatable parameter
func (d Device) Controllers() map[string]uint8 {
	out := make(map[string]uint8, len(d.Parameters))
	for _, p := range d.Parameters {
		out[p] = converter.ControllerFor(p)
	}
	return out
}
