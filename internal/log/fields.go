package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldSessionID  = "session_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldEvent      = "event"
	FieldBase       = "base"
	FieldTarget     = "target"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentWS      = "ws"
	ComponentDataset = "dataset"
	ComponentRates   = "rates"
	ComponentAMQP    = "amqp"
)
