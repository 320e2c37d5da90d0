package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID = "transaction_id"
	FieldAccountID     = "account_id"
	FieldTitle         = "title"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldKind          = "kind"
	FieldDueDate       = "due_date"
	FieldBaseCurrency  = "base_currency"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentRates     = "rates"
	ComponentSchedule  = "schedule"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)
