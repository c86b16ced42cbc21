package auth

// Scopes gating privileged routes.
const (
	ScopeGymsWrite        = "gyms:write"
	ScopeCheckInsValidate = "check-ins:validate"
)
