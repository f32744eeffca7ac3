package clinical

// EvidenceDelta lists evidence added or retired since the last committed turn.
type EvidenceDelta struct {
	Added   []Evidence `json:"added"`
	Removed []Evidence `json:"removed"`
}

// DiagnosesDelta lists diagnoses added or retired since the last committed turn.
type DiagnosesDelta struct {
	Added   []Diagnosis `json:"added"`
	Removed []Diagnosis `json:"removed"`
}

// Delta is the per-turn change context handed to the stages as read-only input.
// Entries keep their Creator, so the delta can be partitioned by actor.
type Delta struct {
	Evidence  EvidenceDelta  `json:"evidence"`
	Diagnoses DiagnosesDelta `json:"diagnoses"`
}

// ComputeDelta compares the current entries of s against its baseline.
// An entry is added when it is active and absent from the baseline, and
// removed when it was active at the baseline and is now Redundant.
func ComputeDelta(s *State) Delta {
	d := Delta{
		Evidence: EvidenceDelta{
			Added:   []Evidence{},
			Removed: []Evidence{},
		},
		Diagnoses: DiagnosesDelta{
			Added:   []Diagnosis{},
			Removed: []Diagnosis{},
		},
	}

	for _, e := range s.Evidence {
		prior, seen := s.Baseline.Evidence[e.ID]
		switch {
		case !seen && e.Active():
			d.Evidence.Added = append(d.Evidence.Added, e)
		case seen && prior == RelevanceActive && !e.Active():
			d.Evidence.Removed = append(d.Evidence.Removed, e)
		}
	}

	for _, dx := range s.Diagnoses {
		prior, seen := s.Baseline.Diagnoses[dx.ID]
		switch {
		case !seen && dx.Active():
			d.Diagnoses.Added = append(d.Diagnoses.Added, dx.clone())
		case seen && prior == RelevanceActive && !dx.Active():
			d.Diagnoses.Removed = append(d.Diagnoses.Removed, dx.clone())
		}
	}

	return d
}

// ByActor returns the part of the delta caused by the given actor class.
func (d Delta) ByActor(c Creator) Delta {
	byEvidence := func(e Evidence) bool { return e.Creator == c }
	byDiagnosis := func(dx Diagnosis) bool { return dx.Creator == c }

	return Delta{
		Evidence: EvidenceDelta{
			Added:   filter(d.Evidence.Added, byEvidence),
			Removed: filter(d.Evidence.Removed, byEvidence),
		},
		Diagnoses: DiagnosesDelta{
			Added:   filter(d.Diagnoses.Added, byDiagnosis),
			Removed: filter(d.Diagnoses.Removed, byDiagnosis),
		},
	}
}

// Empty reports whether nothing changed since the last committed turn.
func (d Delta) Empty() bool {
	return len(d.Evidence.Added) == 0 &&
		len(d.Evidence.Removed) == 0 &&
		len(d.Diagnoses.Added) == 0 &&
		len(d.Diagnoses.Removed) == 0
}
