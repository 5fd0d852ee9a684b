// Package schema validates project and pattern JSON before it reaches the exporter
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/livetechno/livetechno/pkg/converter"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schema names
const (
	ProjectState = "project"
	Pattern      = "pattern"
)

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

// Error lists every schema violation of a document
type Error struct {
	Schema string
	Issues []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s does not match schema: %s", e.Schema, strings.Join(e.Issues, "; "))
}

func load() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema)
		for _, name := range []string{ProjectState, Pattern} {
			data, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
			if err != nil {
				compileErr = fmt.Errorf("failed to read %s schema: %w", name, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			if err != nil {
				compileErr = fmt.Errorf("failed to compile %s schema: %w", name, err)
				return
			}
			compiled[name] = s
		}
	})
	return compiled, compileErr
}

// Validate checks raw JSON against the named schema
func Validate(name string, raw []byte) error {
	schemas, err := load()
	if err != nil {
		return err
	}
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to read %s document: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &Error{Schema: name}
	for _, issue := range result.Errors() {
		verr.Issues = append(verr.Issues, fmt.Sprintf("%s: %s", issue.Field(), issue.Description()))
	}
	return verr
}

// ValidateProject checks a ProjectState document
func ValidateProject(raw []byte) error {
	return Validate(ProjectState, raw)
}

// ValidatePattern checks a single Pattern document
func ValidatePattern(raw []byte) error {
	return Validate(Pattern, raw)
}

// DecodeProject validates then unmarshals a project
func DecodeProject(raw []byte) (*converter.Project, error) {
	if err := ValidateProject(raw); err != nil {
		return nil, err
	}
	var p converter.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &p, nil
}

// DecodePattern validates then unmarshals a pattern
func DecodePattern(raw []byte) (*converter.Pattern, error) {
	if err := ValidatePattern(raw); err != nil {
		return nil, err
	}
	var p converter.Pattern
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode pattern: %w", err)
	}
	return &p, nil
}
