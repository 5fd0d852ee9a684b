// Package store persists the studio project and its activity log
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/renameio/v2"

	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/schema"
)

// ProjectFile is the saved project name inside the data directory
const ProjectFile = "project.json"

// ProjectStore keeps a single project document on disk
type ProjectStore struct {
	path string
}

// NewProjectStore creates a store under dataDir, creating the directory if needed
func NewProjectStore(dataDir string) (*ProjectStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to create data directory"))
	}
	return &ProjectStore{path: filepath.Join(dataDir, ProjectFile)}, nil
}

// Path returns the project file location
func (s *ProjectStore) Path() string {
	return s.path
}

// Save writes the project as indented JSON, replacing any previous save
func (s *ProjectStore) Save(project *converter.Project) error {
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("failed to encode project"))
	}

	if err := renameio.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fault.Wrap(err, fmsg.With("failed to write project"))
	}
	return nil
}

// Load reads and validates the saved project
func (s *ProjectStore) Load() (*converter.Project, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("no saved project", "No project has been saved yet"),
			ftag.With(ftag.NotFound))
	}
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to read project"))
	}

	project, err := schema.DecodeProject(data)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("saved project is invalid", "The saved project is corrupted"),
			ftag.With(ftag.Internal))
	}
	return project, nil
}
