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
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldQuarter     = "quarter"
	FieldFY          = "financial_year"
	FieldBasis       = "basis"
	FieldTemplateID  = "template_id"
	FieldExpenseID   = "expense_id"
	FieldIncomeID    = "income_id"
	FieldDueDate     = "due_date"
	FieldAmountCents = "amount_cents"
	FieldGSTCents    = "gst_cents"
	FieldGenerated   = "generated"
	FieldSkipped     = "skipped"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentReports   = "reports"
	ComponentRecurring = "recurring"
	ComponentLedger    = "ledger"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpGenerate = "generate"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
