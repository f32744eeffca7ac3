package oracle

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Step outcomes a script can simulate instead of returning content.
const (
	StepTransient = "transient"
	StepTimeout   = "timeout"
)

// Step is one scripted oracle reply. Exactly one of Content or Error is set.
type Step struct {
	Content string `yaml:"content"`
	Error   string `yaml:"error,omitempty"`
	Delay   string `yaml:"delay,omitempty"`
}

// Script replays canned responses per stage, in order. It backs the replay
// command and stands in for a model in tests.
type Script struct {
	mu        sync.Mutex
	responses map[string][]Step
	calls     []Request
}

// NewScript creates a script from per-stage step queues.
func NewScript(responses map[string][]Step) *Script {
	queues := make(map[string][]Step, len(responses))
	for stage, steps := range responses {
		queues[stage] = append([]Step(nil), steps...)
	}
	return &Script{responses: queues}
}

// LoadScript reads per-stage step queues from a YAML file keyed by stage name.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var responses map[string][]Step
	if err := yaml.Unmarshal(data, &responses); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}

	return NewScript(responses), nil
}

// Push appends steps to the queue of a stage.
func (s *Script) Push(stage string, steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[stage] = append(s.responses[stage], steps...)
}

// Calls returns every request the script has received.
func (s *Script) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

// CallCount returns how many requests a stage has received.
func (s *Script) CallCount(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Stage == stage {
			n++
		}
	}
	return n
}

func (s *Script) Invoke(ctx context.Context, req Request) (string, error) {
	step, err := s.next(req)
	if err != nil {
		return "", err
	}

	if step.Delay != "" {
		d, err := time.ParseDuration(step.Delay)
		if err != nil {
			return "", fmt.Errorf("script step delay: %w", err)
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	switch step.Error {
	case "":
		return step.Content, nil
	case StepTransient:
		return "", fmt.Errorf("%w: scripted failure", ErrTransient)
	case StepTimeout:
		<-ctx.Done()
		return "", ctx.Err()
	default:
		return "", fmt.Errorf("unknown script error %q", step.Error)
	}
}

func (s *Script) next(req Request) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	queue := s.responses[req.Stage]
	if len(queue) == 0 {
		return Step{}, fmt.Errorf("%w: script exhausted for stage %s", ErrTransient, req.Stage)
	}

	s.responses[req.Stage] = queue[1:]
	return queue[0], nil
}
