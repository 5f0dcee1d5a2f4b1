package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOwner      = "owner"
	FieldPeriod     = "period"
	FieldField      = "field"
	FieldAmount     = "amount"
	FieldSyncStatus = "sync_status"
	FieldOnline     = "online"
	FieldEmail      = "email"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentRemote  = "remote"
	ComponentSync    = "sync"
	ComponentAuth    = "auth"
	ComponentAMQP    = "amqp"
	ComponentCLI     = "cli"
)
