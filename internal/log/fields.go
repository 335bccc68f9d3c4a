package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwner       = "owner"
	FieldGuest       = "guest"
	FieldIdentity    = "identity"
	FieldTxID        = "transaction_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldFilterKind  = "filter_kind"
	FieldSession     = "session"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentSharing = "sharing"
	ComponentAuth    = "auth"
	ComponentSession = "session"
	ComponentAdvisor = "advisor"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpRemove   = "remove"
	OpList     = "list"
	OpPersist  = "persist"
	OpSeed     = "seed"
	OpGrant    = "grant"
	OpRevoke   = "revoke"
	OpResolve  = "resolve"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpExpire   = "expire"
	OpSnapshot = "snapshot"
)
