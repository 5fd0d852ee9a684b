// Package studio wires validation, export, generation and persistence together
package studio

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/converter/devices"
	"github.com/livetechno/livetechno/pkg/generator"
	"github.com/livetechno/livetechno/pkg/schema"
	"github.com/livetechno/livetechno/pkg/store"
)

// Action names written to the activity log
const (
	ActionMachines    = "get_machines"
	ActionValidateKey = "validate_api_key"
	ActionGenerate    = "gpt_generate"
	ActionExport      = "midi_export"
	ActionSave        = "project_save"
	ActionLoad        = "project_load"
)

// Options configures a Service
type Options struct {
	Model   string
	BaseURL string
	APIKey  string
	Export  converter.Options
}

// Service is the studio backend shared by the API, CLI and TUI
type Service struct {
	projects *store.ProjectStore
	activity *store.ActivityLog
	opts     Options

	mu     sync.RWMutex
	apiKey string
}

// New creates a Service. activity may be nil to skip the log.
func New(projects *store.ProjectStore, activity *store.ActivityLog, opts Options) *Service {
	return &Service{
		projects: projects,
		activity: activity,
		opts:     opts,
		apiKey:   opts.APIKey,
	}
}

func (s *Service) record(ctx context.Context, action string, payload any, err error) {
	if s.activity == nil {
		return
	}
	_ = s.activity.Action(ctx, action, payload, err)
	if err != nil {
		_ = s.activity.Error(ctx, action, err)
	}
}

// Machines lists the machine catalog
func (s *Service) Machines(ctx context.Context) []devices.Device {
	catalog := devices.Catalog()
	s.record(ctx, ActionMachines, nil, nil)
	return catalog
}

// ValidateKey accepts an OpenAI key for later generation requests
func (s *Service) ValidateKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	var err error
	switch {
	case key == "":
		err = fault.New("missing api key",
			fmsg.WithDesc("missing api key", "API key is missing"),
			ftag.With(ftag.InvalidArgument))
	case !strings.HasPrefix(key, "sk-"):
		err = fault.New("malformed api key",
			fmsg.WithDesc("malformed api key", "API key is invalid"),
			ftag.With(ftag.Unauthenticated))
	default:
		s.mu.Lock()
		s.apiKey = key
		s.mu.Unlock()
	}

	s.record(ctx, ActionValidateKey, map[string]bool{"valid": err == nil}, err)
	return err
}

// HasKey reports whether generation is available
func (s *Service) HasKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey != ""
}

// Generate composes a pattern for the given prompt
func (s *Service) Generate(ctx context.Context, prompt string, project *converter.Project) (*converter.Pattern, error) {
	s.mu.RLock()
	key := s.apiKey
	s.mu.RUnlock()

	if key == "" {
		err := fault.New("no api key configured",
			fmsg.WithDesc("no api key configured", "OpenAI API key is not configured"),
			ftag.With(ftag.Unauthenticated))
		s.record(ctx, ActionGenerate, map[string]string{"prompt": prompt}, err)
		return nil, err
	}

	pattern, err := generator.New(key, s.opts.Model, s.opts.BaseURL).Generate(ctx, prompt, project)
	s.record(ctx, ActionGenerate, map[string]string{"prompt": prompt}, err)
	return pattern, err
}

// Export validates a raw project document and renders it as a MIDI file
func (s *Service) Export(ctx context.Context, raw []byte) ([]byte, error) {
	project, err := s.Decode(raw)
	if err != nil {
		s.record(ctx, ActionExport, nil, err)
		return nil, err
	}

	data, err := s.ExportProject(project)
	s.record(ctx, ActionExport, map[string]int{"machines": len(project.Machines), "bytes": len(data)}, err)
	return data, err
}

// ExportProject renders an already decoded project
func (s *Service) ExportProject(project *converter.Project) ([]byte, error) {
	data, err := converter.Export(project, s.opts.Export)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// Decode validates a raw project document against the schema
func (s *Service) Decode(raw []byte) (*converter.Project, error) {
	project, err := schema.DecodeProject(raw)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("invalid project", "ProjectState is invalid: "+err.Error()),
			ftag.With(ftag.InvalidArgument))
	}
	return project, nil
}

// Save validates and stores the project
func (s *Service) Save(ctx context.Context, raw []byte) (string, error) {
	project, err := s.Decode(raw)
	if err == nil {
		err = s.projects.Save(project)
	}
	s.record(ctx, ActionSave, map[string]string{"path": s.projects.Path()}, err)
	if err != nil {
		return "", err
	}
	return s.projects.Path(), nil
}

// Load returns the saved project
func (s *Service) Load(ctx context.Context) (*converter.Project, error) {
	project, err := s.projects.Load()
	s.record(ctx, ActionLoad, map[string]string{"path": s.projects.Path()}, err)
	return project, err
}

// Activity returns the newest logged actions
func (s *Service) Activity(ctx context.Context, limit int) ([]store.ActionLog, error) {
	if s.activity == nil {
		return nil, nil
	}
	return s.activity.RecentActions(ctx, limit)
}

// classify tags exporter failures with their error kind
func classify(err error) error {
	var verr *converter.ValidationError
	if errors.As(err, &verr) {
		return fault.Wrap(err,
			fmsg.WithDesc("project rejected by exporter", err.Error()),
			ftag.With(ftag.InvalidArgument))
	}
	return fault.Wrap(err,
		fmsg.WithDesc("midi encoding failed", "MIDI export failed"),
		ftag.With(ftag.Internal))
}
