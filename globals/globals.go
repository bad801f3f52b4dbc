package globals

// Context keys
type ContextKey string

const (
	PrincipalKey ContextKey = "principal"
	RoleKey      ContextKey = "role"
)
