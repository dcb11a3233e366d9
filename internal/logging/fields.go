package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldStudy is the standardized structured logging key for study partitions.
	FieldStudy = "study"
	// FieldCandidate is the standardized structured logging key for candidate keys.
	FieldCandidate = "candidate"
	// FieldCorrelationID is the standardized structured logging key for dispatch correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldReason is the standardized structured logging key for gating reasons.
	FieldReason = "reason"
)
