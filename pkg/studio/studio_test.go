package studio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"

	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/store"
)

const scenario = `{
  "meta": {"bpm": 128, "ppq": 480},
  "machines": [{"id": "behringer.rd9", "instanceId": "rd9-1", "midiChannel": 10}],
  "patterns": [{"targetMachine": "rd9-1", "lengthSteps": 16, "steps": [{"t": 0, "note": 36, "vel": 100, "duration": 0.25}]}]
}`

func newService(t *testing.T) (*Service, *store.ActivityLog) {
	t.Helper()
	dir := t.TempDir()
	projects, err := store.NewProjectStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	activity, err := store.OpenActivityLog(filepath.Join(dir, store.DatabaseFile))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = activity.Close() })
	return New(projects, activity, Options{}), activity
}

func TestExport(t *testing.T) {
	svc, activity := newService(t)
	ctx := context.Background()

	data, err := svc.Export(ctx, []byte(scenario))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if converter.DetectFormatFromContent(data) != converter.FormatMIDI {
		t.Error("Export() did not return a MIDI file")
	}

	actions, err := activity.RecentActions(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].ActionType != ActionExport || !actions[0].Success {
		t.Errorf("activity = %+v, want successful %s", actions, ActionExport)
	}
}

func TestExportRejectsInvalidProject(t *testing.T) {
	svc, activity := newService(t)
	ctx := context.Background()

	_, err := svc.Export(ctx, []byte(`{"meta": {"bpm": 128, "ppq": 32768}, "machines": [], "patterns": []}`))
	if ftag.Get(err) != ftag.InvalidArgument {
		t.Errorf("ftag.Get() = %v, want %v (err %v)", ftag.Get(err), ftag.InvalidArgument, err)
	}

	errs, err := activity.RecentErrors(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 {
		t.Errorf("RecentErrors() = %d entries, want 1", len(errs))
	}
}

func TestExportProjectClassifiesCoreErrors(t *testing.T) {
	svc, _ := newService(t)

	// passes the schema layer's concerns but trips the exporter
	project := &converter.Project{
		Meta:     converter.Meta{BPM: 128, PPQ: 480},
		Machines: []converter.Machine{{ID: "x", InstanceID: "x-1", MIDIChannel: 1}},
		Patterns: []converter.Pattern{{TargetMachine: "x", LengthSteps: 16, Steps: []converter.Step{{Note: 60, Vel: 200, Duration: 1}}}},
	}
	_, err := svc.ExportProject(project)
	if ftag.Get(err) != ftag.InvalidArgument {
		t.Errorf("ftag.Get() = %v, want %v", ftag.Get(err), ftag.InvalidArgument)
	}
	var verr *converter.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error %v does not wrap *converter.ValidationError", err)
	}
}

func TestSaveLoad(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Load(ctx); ftag.Get(err) != ftag.NotFound {
		t.Errorf("Load() before save: ftag = %v, want %v", ftag.Get(err), ftag.NotFound)
	}

	path, err := svc.Save(ctx, []byte(scenario))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != store.ProjectFile {
		t.Errorf("Save() path = %q", path)
	}

	project, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if project.Machines[0].InstanceID != "rd9-1" {
		t.Errorf("Load() = %+v", project)
	}
}

func TestValidateKey(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if svc.HasKey() {
		t.Fatal("HasKey() = true before validation")
	}
	if err := svc.ValidateKey(ctx, ""); ftag.Get(err) != ftag.InvalidArgument {
		t.Errorf("ValidateKey(\"\") ftag = %v, want %v", ftag.Get(err), ftag.InvalidArgument)
	}
	if err := svc.ValidateKey(ctx, "pk-123"); ftag.Get(err) != ftag.Unauthenticated {
		t.Errorf("ValidateKey(pk-123) ftag = %v, want %v", ftag.Get(err), ftag.Unauthenticated)
	}
	if err := svc.ValidateKey(ctx, "sk-abc"); err != nil {
		t.Errorf("ValidateKey(sk-abc) error = %v", err)
	}
	if !svc.HasKey() {
		t.Error("HasKey() = false after a valid key")
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Generate(context.Background(), "four on the floor", nil)
	if ftag.Get(err) != ftag.Unauthenticated {
		t.Errorf("Generate() ftag = %v, want %v", ftag.Get(err), ftag.Unauthenticated)
	}
}

func TestMachines(t *testing.T) {
	svc, _ := newService(t)
	if got := svc.Machines(context.Background()); len(got) != 2 {
		t.Errorf("Machines() returned %d devices, want 2", len(got))
	}
}
