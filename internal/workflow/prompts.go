package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/prompts"
)

// ComposePrompt builds the oracle request for a stage by combining tunable
// instructions, the fixed output specification, and the serialized view of
// the case the stage is allowed to see. A nil view sends no case context.
func ComposePrompt(ps prompts.System, stage prompts.Stage, view any) (oracle.Request, error) {
	instructions, err := ps.Instructions(stage)
	if err != nil {
		return oracle.Request{}, fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(stage)
	if err != nil {
		return oracle.Request{}, fmt.Errorf("load spec for %s: %w", stage, err)
	}

	req := oracle.Request{
		Stage:        string(stage),
		Instructions: instructions,
		Schema:       spec,
	}

	if view != nil {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return oracle.Request{}, fmt.Errorf("serialize %s context: %w", stage, err)
		}
		req.Context = string(data)
	}

	return req, nil
}
