package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "pass_completed").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldPath is the monitored file a log line refers to.
	FieldPath = "path"
	// FieldPeriod is the scheduler period in seconds.
	FieldPeriod = "period_seconds"
	// FieldSessionID identifies one daemon run. The console handler drops it.
	FieldSessionID = "session_id"
)
