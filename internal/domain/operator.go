package domain

// Operator is the authenticated staff member acting on a request. Identity
// and roles travel with every remote call so the Flash API sees who acted;
// they are never cached because roles can change between calls.
type Operator struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}
