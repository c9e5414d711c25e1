package model

// Principal is the authenticated caller resolved from a session token.
type Principal struct {
	UserID string
	Role   string
}

func (p *Principal) IsManager() bool {
	return p != nil && IsManager(p.Role)
}
