// Package prompts holds the per-stage instructions and output specifications
// sent to the reasoning oracle. Instructions are tunable through overrides;
// specifications are fixed because responses are decoded against them.
package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// System resolves the instructions and output specification of a stage.
type System interface {
	Instructions(stage Stage) (string, error)
	Spec(stage Stage) (string, error)
}

type library struct {
	overrides map[Stage]string
}

// New creates a prompt library. Each override replaces the default
// instructions of its stage.
func New(overrides map[Stage]string) (System, error) {
	lib := &library{overrides: make(map[Stage]string, len(overrides))}
	for stage, text := range overrides {
		if _, err := ParseStage(string(stage)); err != nil {
			return nil, fmt.Errorf("override %q: %w", stage, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("override %q: %w", stage, ErrEmptyOverride)
		}
		lib.overrides[stage] = text
	}
	return lib, nil
}

// LoadDir creates a prompt library from a directory of <stage>.md files.
// Missing files keep the default instructions. An empty dir yields defaults.
func LoadDir(dir string) (System, error) {
	overrides := make(map[Stage]string)
	if dir == "" {
		return New(overrides)
	}

	for _, stage := range stages {
		data, err := os.ReadFile(filepath.Join(dir, string(stage)+".md"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s override: %w", stage, err)
		}
		overrides[stage] = string(data)
	}

	return New(overrides)
}

func (l *library) Instructions(stage Stage) (string, error) {
	if text, ok := l.overrides[stage]; ok {
		return text, nil
	}
	return Instructions(stage)
}

func (l *library) Spec(stage Stage) (string, error) {
	return Spec(stage)
}
