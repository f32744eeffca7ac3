// Package cases stores the committed clinical state of each case. It is the
// persistence boundary of the turn engine: a turn reads the committed state,
// works on a copy, and commits back with an optimistic version check.
package cases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/pkg/pagination"
	"github.com/JaimeStill/rounds/pkg/query"
)

// Domain errors for case operations.
var (
	ErrNotFound  = errors.New("case not found")
	ErrDuplicate = errors.New("case already exists")
	ErrConflict  = errors.New("case was modified concurrently")
)

// System defines the public contract for case storage.
type System interface {
	// Create stores a new case at version 1.
	Create(ctx context.Context, s *clinical.State) error
	// Find returns an independent copy of the committed state.
	Find(ctx context.Context, id uuid.UUID) (*clinical.State, error)
	// Commit replaces the committed state if it is still at version expected.
	// Returns ErrConflict when another writer committed first.
	Commit(ctx context.Context, s *clinical.State, expected int) error
	// Update applies fn to the committed state and commits the result.
	// Nothing is stored when fn returns an error.
	Update(ctx context.Context, id uuid.UUID, fn func(*clinical.State) error) (*clinical.State, error)
	// List returns a page of case summaries.
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
}

// Summary is the listing view of a case.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	PatientName string    `json:"patient_name"`
	Gender      string    `json:"gender"`
	Age         int       `json:"age"`
	Turn        int       `json:"turn"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filters contains optional filtering criteria for case listings.
// Nil fields are ignored.
type Filters struct {
	Gender  *string `json:"gender,omitempty"`
	MinTurn *int    `json:"min_turn,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Gender", f.Gender).
		WhereAtLeast("Turn", f.MinTurn)
}

func summarize(s *clinical.State, createdAt time.Time) Summary {
	return Summary{
		ID:          s.CaseID,
		PatientName: s.Patient.Name,
		Gender:      s.Patient.Gender,
		Age:         s.Patient.Age,
		Turn:        s.Turn,
		Version:     s.Version,
		CreatedAt:   createdAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
