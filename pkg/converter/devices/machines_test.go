package devices

import (
	"testing"

	"github.com/livetechno/livetechno/pkg/converter"
)

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 2 {
		t.Fatalf("Catalog() returned %d devices, want 2", len(catalog))
	}

	channels := map[string]int{RD9ID: 10, TD3ID: 1}
	for _, d := range catalog {
		want, ok := channels[d.ID]
		if !ok {
			t.Errorf("unexpected device %q", d.ID)
			continue
		}
		if d.DefaultChannel != want {
			t.Errorf("%s DefaultChannel = %d, want %d", d.ID, d.DefaultChannel, want)
		}
	}
}

func TestRD9Notes(t *testing.T) {
	notes := map[string]int{}
	for _, n := range NewRD9().Notes {
		notes[n.Name] = n.Note
	}

	want := map[string]int{"BD": 36, "SD": 38, "CH": 42, "OH": 46}
	for name, note := range want {
		if notes[name] != note {
			t.Errorf("RD-9 %s = %d, want %d", name, notes[name], note)
		}
	}
	if len(notes) != 11 {
		t.Errorf("RD-9 has %d instruments, want 11", len(notes))
	}
	if len(NewTD3().Notes) != 0 {
		t.Error("TD-3 should not have a drum map")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		wantID string
		found  bool
	}{
		{"behringer.rd9", RD9ID, true},
		{"RD-9", RD9ID, true},
		{"td3", TD3ID, true},
		{" Behringer.TD3 ", TD3ID, true},
		{"tr808", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Lookup(tt.name)
			if ok != tt.found {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.name, ok, tt.found)
			}
			if d.ID != tt.wantID {
				t.Errorf("Lookup(%q) = %q, want %q", tt.name, d.ID, tt.wantID)
			}
		})
	}
}

func TestNewInstance(t *testing.T) {
	m := NewRD9().NewInstance(3)

	if m.InstanceID != "behringer.rd9_3" {
		t.Errorf("InstanceID = %q, want %q", m.InstanceID, "behringer.rd9_3")
	}
	if m.MIDIChannel != 10 {
		t.Errorf("MIDIChannel = %d, want 10", m.MIDIChannel)
	}
	if converter.TrackNameFor(m) != "BEHRINGER.RD9_behringer.rd9_3" {
		t.Errorf("TrackNameFor() = %q", converter.TrackNameFor(m))
	}
}

func TestTD3Controllers(t *testing.T) {
	ccs := NewTD3().Controllers()
	want := map[string]uint8{"cutoff": 74, "resonance": 71, "envmod": 72, "decay": 73, "accent": 75}

	for param, cc := range want {
		if ccs[param] != cc {
			t.Errorf("Controllers()[%q] = %d, want %d", param, ccs[param], cc)
		}
	}
}
