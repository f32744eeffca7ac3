package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/pkg/pagination"
	"github.com/JaimeStill/rounds/pkg/query"
	"github.com/JaimeStill/rounds/pkg/repository"
)

var errs = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Conflict:  ErrConflict,
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed case store. The state is stored as JSONB
// next to the columns used for listing.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "cases"),
		pagination: pagination,
	}
}

func (r *repo) Create(ctx context.Context, s *clinical.State) error {
	s.Version = 1
	s.UpdatedAt = time.Now().UTC()

	data, err := encodeState(s)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO cases(id, patient_name, patient_gender, patient_age, turn, version, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	err = repository.ExecOne(ctx, r.db, q,
		s.CaseID,
		s.Patient.Name,
		s.Patient.Gender,
		s.Patient.Age,
		s.Turn,
		s.Version,
		data,
		s.UpdatedAt,
	)
	if err != nil {
		return errs.Map(err)
	}

	r.logger.Info("case created", "case_id", s.CaseID)
	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*clinical.State, error) {
	q, args := query.NewBuilder(stateProjection).BuildSingle("ID", id)

	s, err := repository.One(ctx, r.db, scanState, q, args...)
	if err != nil {
		return nil, errs.Map(err)
	}
	return s, nil
}

func (r *repo) Commit(ctx context.Context, s *clinical.State, expected int) error {
	_, err := repository.Tx(ctx, r.db, nil, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, r.commit(ctx, tx, s, expected)
	})
	if err != nil {
		return errs.Map(err)
	}

	r.logger.Info("case committed", "case_id", s.CaseID, "turn", s.Turn, "version", s.Version)
	return nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, fn func(*clinical.State) error) (*clinical.State, error) {
	return repository.Tx(ctx, r.db, nil, func(tx *sql.Tx) (*clinical.State, error) {
		q := `SELECT c.id, c.state, c.version FROM public.cases c WHERE c.id = $1 FOR UPDATE`

		s, err := repository.One(ctx, tx, scanState, q, id)
		if err != nil {
			return nil, errs.Map(err)
		}

		if err := fn(s); err != nil {
			return nil, err
		}

		if err := r.commit(ctx, tx, s, s.Version); err != nil {
			return nil, err
		}
		return s, nil
	})
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(summaryProjection, defaultSort).
		Tiebreak("ID").
		WhereSearch(page.Search, "PatientName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Scalar[int](ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.All(ctx, r.db, scanSummary, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

// commit writes s at version expected+1. A missed row is a conflict when the
// case exists and not-found otherwise.
func (r *repo) commit(ctx context.Context, tx *sql.Tx, s *clinical.State, expected int) error {
	s.Version = expected + 1
	s.UpdatedAt = time.Now().UTC()

	data, err := encodeState(s)
	if err != nil {
		return err
	}

	q := `
		UPDATE cases
		SET state = $1, patient_name = $2, turn = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7`

	err = repository.ExecOne(ctx, tx, q,
		data,
		s.Patient.Name,
		s.Turn,
		s.Version,
		s.UpdatedAt,
		s.CaseID,
		expected,
	)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errs.Map(err)
	}

	exists, err := repository.Scalar[bool](ctx, tx, `SELECT EXISTS(SELECT 1 FROM cases WHERE id = $1)`, s.CaseID)
	if err != nil {
		return fmt.Errorf("check case %s: %w", s.CaseID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s at version %d", ErrConflict, s.CaseID, expected)
}
