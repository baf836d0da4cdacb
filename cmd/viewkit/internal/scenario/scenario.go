// Package scenario loads YAML lifecycle scenarios and plays them against a
// renderer wired to an in-memory document.
//
// A scenario declares a view tree, an optional host document, a list of
// steps and, optionally, the event log the steps are expected to produce:
//
//	name: insert and remove
//	markup: <div id="app"></div>
//	views:
//	  - name: root
//	    template: main
//	    children:
//	      - name: child
//	        tag: span
//	steps:
//	  - op: append
//	    view: root
//	    into: app
//	  - op: flush
//	  - op: remove
//	    view: child
//	expect:
//	  - root:willInsertElement
package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/viewkit/pkg/errors"
)

// Op names a scenario step.
type Op string

const (
	OpAppend      Op = "append"
	OpReplace     Op = "replace"
	OpCreate      Op = "create"
	OpRemove      Op = "remove"
	OpDestroy     Op = "destroy"
	OpRevalidate  Op = "revalidate"
	OpCancel      Op = "cancel"
	OpUpdateAttrs Op = "update-attrs"
	OpAddChild    Op = "add-child"
	OpFlush       Op = "flush"
)

var knownOps = map[Op]bool{
	OpAppend:      true,
	OpReplace:     true,
	OpCreate:      true,
	OpRemove:      true,
	OpDestroy:     true,
	OpRevalidate:  true,
	OpCancel:      true,
	OpUpdateAttrs: true,
	OpAddChild:    true,
	OpFlush:       true,
}

// ErrInvalid is the cause of every validation failure.
var ErrInvalid = stderrors.New("invalid scenario")

// Scenario is a parsed scenario file.
type Scenario struct {
	Name   string     `yaml:"name"`
	Markup string     `yaml:"markup,omitempty"`
	Views  []ViewSpec `yaml:"views"`
	Steps  []Step     `yaml:"steps"`
	Expect []string   `yaml:"expect,omitempty"`
}

// ViewSpec declares a view and its children.
type ViewSpec struct {
	Name     string         `yaml:"name"`
	Tag      string         `yaml:"tag,omitempty"`
	Layout   string         `yaml:"layout,omitempty"`
	Template string         `yaml:"template,omitempty"`
	Attrs    map[string]any `yaml:"attrs,omitempty"`
	Children []ViewSpec     `yaml:"children,omitempty"`
}

// Step is one lifecycle operation.
type Step struct {
	Op   Op     `yaml:"op"`
	View string `yaml:"view,omitempty"`
	// Into is the id of the container element for append and replace.
	// The document body is used when empty.
	Into  string         `yaml:"into,omitempty"`
	Attrs map[string]any `yaml:"attrs,omitempty"`
	// Child is the view added by add-child.
	Child *ViewSpec `yaml:"child,omitempty"`
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("scenario.Load", fmt.Errorf("failed to read %s: %w", path, err))
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, configError("scenario.Parse", fmt.Errorf("%w: empty document", ErrInvalid))
		}
		return nil, configError("scenario.Parse", fmt.Errorf("failed to parse scenario: %w", err))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks view names and step references. Views added by an
// add-child step may be referenced by later steps.
func (s *Scenario) Validate() error {
	names := make(map[string]bool)
	var declare func(specs []ViewSpec) error
	declare = func(specs []ViewSpec) error {
		for _, spec := range specs {
			if spec.Name == "" {
				return invalid("view without a name")
			}
			if names[spec.Name] {
				return invalid("duplicate view %q", spec.Name)
			}
			names[spec.Name] = true
			if err := declare(spec.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := declare(s.Views); err != nil {
		return err
	}

	for i, step := range s.Steps {
		if !knownOps[step.Op] {
			return invalid("step %d: unknown op %q", i+1, step.Op)
		}
		if step.Op == OpFlush {
			continue
		}
		if step.View == "" {
			return invalid("step %d (%s): missing view", i+1, step.Op)
		}
		if !names[step.View] {
			return invalid("step %d (%s): unknown view %q", i+1, step.Op, step.View)
		}
		if step.Op == OpAddChild {
			if step.Child == nil {
				return invalid("step %d (%s): missing child", i+1, step.Op)
			}
			if err := declare([]ViewSpec{*step.Child}); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return configError("scenario.Validate", fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
}

func configError(op string, err error) error {
	return &errors.ViewError{Op: op, Kind: errors.KindConfig, Err: err}
}
