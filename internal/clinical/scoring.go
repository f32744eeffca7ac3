package clinical

// Tier buckets a confidence value for directional checks.
type Tier string

const (
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
)

const (
	highThreshold     = 0.7
	moderateThreshold = 0.3

	// scorePrior keeps confidence below 1 and pulls sparse support toward low.
	scorePrior = 1.0
)

var typeWeights = map[ClinicalType]float64{
	TypeLab:     1.5,
	TypeSign:    1.25,
	TypeSymptom: 1.0,
	TypeHistory: 0.75,
}

// Weight returns the strength an evidence classification contributes to a score.
func Weight(t ClinicalType) float64 {
	if w, ok := typeWeights[t]; ok {
		return w
	}
	return 0
}

// NewMetric derives a ClinicalMetric from raw support and conflict scores.
// Negative inputs are clamped to zero.
func NewMetric(support, conflict float64) ClinicalMetric {
	support = max(support, 0)
	conflict = max(conflict, 0)
	return ClinicalMetric{
		Confidence:    support / (support + conflict + scorePrior),
		SupportScore:  support,
		ConflictScore: conflict,
	}
}

// Score computes the metric of d from its evidence links. Only active
// evidence present in the given set contributes.
func Score(d Diagnosis, evidence []Evidence) ClinicalMetric {
	index := make(map[string]Evidence, len(evidence))
	for _, e := range evidence {
		if e.Active() {
			index[e.ID] = e
		}
	}

	sum := func(ids []string) float64 {
		var total float64
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if e, ok := index[id]; ok {
				total += Weight(e.ClinicalType)
			}
		}
		return total
	}

	return NewMetric(sum(d.SupportingEvidenceIDs), sum(d.ConflictingEvidenceIDs))
}

// TierOf buckets a confidence value: high >= 0.7, moderate >= 0.3, else low.
func TierOf(confidence float64) Tier {
	switch {
	case confidence >= highThreshold:
		return TierHigh
	case confidence >= moderateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}
