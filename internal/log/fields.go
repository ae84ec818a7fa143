package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldID          = "id"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldNote        = "note"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentLedger       = "ledger"
	ComponentEvents       = "events"
	ComponentSubscription = "subscription"
	ComponentMirror       = "mirror"
	ComponentWorker       = "worker"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpPost     = "post"
	OpSync     = "sync"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
