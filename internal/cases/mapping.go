package cases

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/pkg/query"
	"github.com/JaimeStill/rounds/pkg/repository"
)

var summaryProjection = query.
	NewProjectionMap("public", "cases", "c").
	Project("id", "ID").
	Project("patient_name", "PatientName").
	Project("patient_gender", "Gender").
	Project("patient_age", "Age").
	Project("turn", "Turn").
	Project("version", "Version").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var stateProjection = query.
	NewProjectionMap("public", "cases", "c").
	Project("id", "ID").
	Project("state", "State").
	Project("version", "Version")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

func scanSummary(s repository.Row) (Summary, error) {
	var c Summary
	err := s.Scan(
		&c.ID,
		&c.PatientName,
		&c.Gender,
		&c.Age,
		&c.Turn,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func scanState(s repository.Row) (*clinical.State, error) {
	var (
		id      string
		data    []byte
		version int
	)
	if err := s.Scan(&id, &data, &version); err != nil {
		return nil, err
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", id, err)
	}
	state.Version = version
	return state, nil
}

func encodeState(s *clinical.State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode case state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*clinical.State, error) {
	var s clinical.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode case state: %w", err)
	}
	return &s, nil
}
