package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldUserID     = "user_id"
	FieldCollection = "collection"
	FieldEntityID   = "entity_id"
	FieldOperation  = "operation"
	FieldRule       = "rule"
	FieldReason     = "reason"
	FieldBackend    = "backend"
	FieldCount      = "count"
	FieldError      = "error"
	FieldErrorType  = "error_type"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
	ComponentAccounts = "accounts"
	ComponentCards    = "credit_cards"
	ComponentBudgets  = "budgets"
	ComponentLedger   = "transactions"
	ComponentProfile  = "profile"
	ComponentSession  = "session"
	ComponentBackup   = "backup"
	ComponentWorker   = "worker"
	ComponentCLI      = "cli"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpClose      = "close"
	OpReactivate = "reactivate"
	OpCancel     = "cancel"
	OpExpire     = "expire"
	OpImport     = "import"
	OpExport     = "export"
	OpSweep      = "sweep"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeIntegrity     = "integrity_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeNetwork       = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType classifies the logged error.
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntity adds the collection and entity id being touched.
func (f LogFields) WithEntity(collection, id string) LogFields {
	f[FieldCollection] = collection
	if id != "" {
		f[FieldEntityID] = id
	}
	return f
}

// WithRule adds an integrity rule name and its reason.
func (f LogFields) WithRule(rule, reason string) LogFields {
	f[FieldRule] = rule
	f[FieldReason] = reason
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
