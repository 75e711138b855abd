package logger

// Standard field names for consistent structured logging across
// flagcore. Use these constants instead of raw strings so every
// worker's log lines line up in the same shape.
const (
	FieldComponent    = "component"
	FieldFlagKey      = "flag_key"
	FieldEventName    = "event_name"
	FieldResponseCode = "response_code"
	FieldRetries      = "retries"
	FieldBackoffMS    = "backoff_ms"
	FieldEnvironment  = "environment"
	FieldStatus       = "status"
	FieldError        = "error"
)
