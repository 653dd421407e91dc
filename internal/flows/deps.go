package flows

// PrincipalRecord is the flow-local view of a stored principal. The engine
// converts to and from its public user type at the boundary.
type PrincipalRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// Deps groups the per-flow dependency sets. The engine builds this once at
// construction and delegates each request method to the matching flow.
type Deps struct {
	ValidateAccess  ValidateDeps
	ValidateRefresh ValidateDeps
	Login           LoginDeps
	Refresh         RefreshDeps
	Logout          LogoutDeps
}
