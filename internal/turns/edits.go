package turns

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
)

// Doctor edits take the case lock so they never interleave with a running
// turn. They land in the committed state and surface in the next delta.

func (c *controller) AddEvidence(
	ctx context.Context,
	caseID uuid.UUID,
	content string,
	t clinical.ClinicalType,
	p clinical.Polarity,
) (clinical.Evidence, error) {
	var added clinical.Evidence
	err := c.edit(ctx, caseID, "evidence added", func(s *clinical.State) error {
		e, err := s.AddDoctorEvidence(content, t, p)
		added = e
		return err
	})
	return added, err
}

func (c *controller) RetireEvidence(ctx context.Context, caseID uuid.UUID, id string) error {
	return c.edit(ctx, caseID, "evidence retired", func(s *clinical.State) error {
		return s.RetireEvidence(id)
	})
}

func (c *controller) AddDiagnosis(ctx context.Context, caseID uuid.UUID, name, reasoning string) (clinical.Diagnosis, error) {
	var added clinical.Diagnosis
	err := c.edit(ctx, caseID, "diagnosis added", func(s *clinical.State) error {
		d, err := s.AddDoctorDiagnosis(name, reasoning)
		added = d
		return err
	})
	return added, err
}

func (c *controller) RetireDiagnosis(ctx context.Context, caseID uuid.UUID, id string) error {
	return c.edit(ctx, caseID, "diagnosis retired", func(s *clinical.State) error {
		return s.RetireDiagnosis(id)
	})
}

func (c *controller) edit(ctx context.Context, caseID uuid.UUID, msg string, fn func(*clinical.State) error) error {
	release, err := c.locks.acquire(ctx, caseID)
	if err != nil {
		return err
	}
	defer release()

	var applyErr error
	s, err := c.cases.Update(ctx, caseID, func(s *clinical.State) error {
		applyErr = fn(s)
		return applyErr
	})
	if applyErr != nil {
		return fmt.Errorf("%w: %w", ErrEditRejected, applyErr)
	}
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, msg, "case_id", caseID, "version", s.Version)
	return nil
}
