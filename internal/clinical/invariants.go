package clinical

import (
	"fmt"
	"slices"
)

// VerifyTransition checks that next is a legal successor of prev. Doctor
// entries keep their content and stay active unless the Doctor retired them
// in prev, no entry disappears, every metric stays in range, and the
// reasoning chain grows by exactly one step with prev as its prefix.
func VerifyTransition(prev, next *State) error {
	for _, pe := range prev.Evidence {
		ne, ok := next.FindEvidence(pe.ID)
		if !ok {
			return fmt.Errorf("%w: evidence %s removed", ErrContractViolation, pe.ID)
		}
		if pe.Creator == CreatorDoctor && *ne != pe {
			return fmt.Errorf("%w: doctor evidence %s modified", ErrContractViolation, pe.ID)
		}
	}

	for _, pd := range prev.Diagnoses {
		nd, ok := next.FindDiagnosis(pd.ID)
		if !ok {
			return fmt.Errorf("%w: diagnosis %s removed", ErrContractViolation, pd.ID)
		}
		if pd.Creator != CreatorDoctor {
			continue
		}
		if nd.Name != pd.Name || nd.Reasoning != pd.Reasoning || nd.Creator != pd.Creator {
			return fmt.Errorf("%w: doctor diagnosis %s rewritten", ErrContractViolation, pd.ID)
		}
		if pd.Active() && !nd.Active() {
			return fmt.Errorf("%w: doctor diagnosis %s retired", ErrContractViolation, pd.ID)
		}
	}

	for _, d := range next.Diagnoses {
		if c := d.Metrics.Confidence; c < 0 || c > 1 {
			return fmt.Errorf("%w: diagnosis %s confidence %.3f out of range", ErrContractViolation, d.ID, c)
		}
		if d.Metrics.SupportScore < 0 || d.Metrics.ConflictScore < 0 {
			return fmt.Errorf("%w: diagnosis %s has a negative score", ErrContractViolation, d.ID)
		}
	}

	if len(next.ReasoningChain) != len(prev.ReasoningChain)+1 {
		return fmt.Errorf(
			"%w: reasoning chain grew from %d to %d steps",
			ErrContractViolation, len(prev.ReasoningChain), len(next.ReasoningChain),
		)
	}
	if !slices.Equal(prev.ReasoningChain, next.ReasoningChain[:len(prev.ReasoningChain)]) {
		return fmt.Errorf("%w: reasoning chain history rewritten", ErrContractViolation)
	}

	return nil
}
