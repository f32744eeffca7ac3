package prompts

const intakeSpec = `Respond with a JSON object matching this exact structure:

{
  "eligible": true,
  "reasoning": "<why the note is or is not sufficient>",
  "positives": [{"content": "<finding>", "clinical_type": "Symptom"}],
  "negatives": [{"content": "<finding>", "clinical_type": "Symptom"}],
  "safety_checklist": ["<red flag>"],
  "question": "<opening question>"
}

Field constraints:
- eligible: false when the note lacks clinical content. All other lists
  must then be empty and question must be an empty string.
- clinical_type: One of "Symptom", "Sign", "Lab", "History".
- positives / negatives: Concise, factual findings taken from the note.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- No additional keys`

const orchestrateSpec = `Respond with a JSON object matching this exact structure:

{
  "current_reasoning_step": {
    "thought": "<what changed and why it matters>",
    "action_taken": "Trigger Evidence Auditor"
  },
  "strategy": {
    "next_question": "<question or null>",
    "differential_status": "Expanding",
    "summary": "<tactical snapshot>"
  },
  "diagnosis_summary": "<longitudinal narrative>",
  "evidence_auditor_grant": {
    "should_run": true,
    "reasons": ["Implicit Extraction"],
    "target_clinical_types": [],
    "implicit_sources": ["DoctorChat"],
    "allowed_actions": ["CreateImplicitEvidence"],
    "to_be_updated_evidence_ids": [],
    "to_be_redundant_evidence_ids": [],
    "objective": "<what the evidence auditor must achieve>"
  },
  "diagnosis_auditor_grant": {
    "should_run": false,
    "reasons": [],
    "focus_diagnosis_ids": [],
    "allowed_actions": [],
    "to_be_updated_ai_diagnosis_ids": [],
    "to_be_redundant_ai_diagnosis_ids": [],
    "objective": ""
  },
  "trigger_rationale": "<why these auditors run>"
}

Field constraints:
- action_taken: One of "Trigger Evidence Auditor", "Trigger Diagnosis Auditor",
  "Trigger Both", "Request Clarification". It must match the should_run flags:
  evidence only, diagnosis only, both, or neither.
- differential_status: One of "Expanding", "Narrowing", "Stable".
- next_question: Required when action_taken is "Request Clarification" and
  the case already has evidence. Otherwise null when nothing needs asking.
- Evidence grant reasons: "Implicit Evidence Update", "Implicit Extraction",
  "Redundancy Check", "Doctor Advisory".
- Evidence grant actions: "CreateImplicitEvidence", "UpdateAIEvidence",
  "MarkAIRedundant", "GenerateDoctorAdvisory".
- implicit_sources: "DoctorChat", "InitialNotes". An empty list grants both
  sources; name a source to restrict extraction to it.
- target_clinical_types: "Symptom", "Sign", "Lab", "History". An empty list
  puts every type in scope; name types to narrow the audit.
- Diagnosis grant reasons: "No Diagnosis", "Diagnosis Stale",
  "Evidence-Driven Update", "Doctor Diagnosis Review".
- Diagnosis grant actions: "CreateAIDiagnosis", "UpdateAIDiagnosis",
  "AttachEvidence", "UpdateConfidenceMetrics", "MarkAIRedundant",
  "GenerateDoctorAdvisory".
- Every grant field is required. Use empty lists, never omit a field.
- A grant with should_run true must list at least one allowed action and
  a non-empty objective.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Scope only AI-owned ids for update or redundancy`

const evidenceSpec = `Respond with a JSON object matching this exact structure:

{
  "new_evidence": [{
    "content": "<finding>",
    "clinical_type": "Symptom",
    "polarity": "Positive",
    "reasoning": "<why it was extracted>",
    "source": "DoctorChat"
  }],
  "updated_evidence": [{
    "id": "<AI evidence id>",
    "content": "<finding>",
    "clinical_type": "Symptom",
    "polarity": "Positive",
    "reasoning": "<why it changed>"
  }],
  "redundant_evidence_ids": [],
  "doctor_advisory": ""
}

Field constraints:
- clinical_type: One of "Symptom", "Sign", "Lab", "History".
- polarity: "Positive" when present, "Negative" when explicitly absent.
- source: "DoctorChat" or "InitialNotes".
- updated_evidence and redundant_evidence_ids may only name ids listed in
  the grant.
- doctor_advisory: Empty unless the grant allows GenerateDoctorAdvisory.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use empty lists for actions you do not take`

const diagnosisSpec = `Respond with a JSON object matching this exact structure:

{
  "new_diagnoses": [{
    "name": "<diagnosis>",
    "reasoning": "<clinical justification>",
    "supporting_evidence_ids": [],
    "conflicting_evidence_ids": []
  }],
  "updated_diagnoses": [{
    "id": "<AI diagnosis id>",
    "name": "<diagnosis>",
    "reasoning": "<updated justification>",
    "supporting_evidence_ids": [],
    "conflicting_evidence_ids": []
  }],
  "redundant_diagnosis_ids": [],
  "confidence_updates": {
    "<diagnosis id>": {"confidence": 0.5, "support_score": 1.0, "conflict_score": 0.0}
  },
  "evidence_links": {
    "<diagnosis id>": {"supporting": [], "conflicting": []}
  },
  "diagnosis_evaluations": [{"diagnosis_id": "<id>", "assessment": "<note>"}]
}

Field constraints:
- Evidence ids must name evidence that exists in the case.
- updated_diagnoses and redundant_diagnosis_ids may only name ids listed
  in the grant.
- evidence_links may target any diagnosis, including Doctor diagnoses.
- confidence values are between 0 and 1.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use empty lists and objects for actions you do not take`

var specs = map[Stage]string{
	StageIntake:      intakeSpec,
	StageOrchestrate: orchestrateSpec,
	StageEvidence:    evidenceSpec,
	StageDiagnosis:   diagnosisSpec,
}

// Spec returns the output specification for a pipeline stage. Specs are not
// tunable: the engine decodes responses against them.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
