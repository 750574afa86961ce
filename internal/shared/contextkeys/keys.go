package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "collection-tracker context key " + string(c)
}

const (
	// UserIDKey carries the authenticated collector's id.
	UserIDKey = contextKey("userID")
	// RequestIDKey carries the per-request correlation id.
	RequestIDKey = contextKey("requestID")
	// CardIDKey and SetIDKey carry the document keys an operation addresses.
	CardIDKey = contextKey("cardID")
	SetIDKey  = contextKey("setID")
	// ComponentKey and OperationKey are set by usecases for log correlation.
	ComponentKey = contextKey("component")
	OperationKey = contextKey("operation")
	// ClaimsKey holds the verified bearer token claims.
	ClaimsKey = contextKey("claims")
)
