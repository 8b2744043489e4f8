package auth

// Role is a role tag carried by access token claims
type Role string

const (
	RoleAnon       Role = "auth:anon"
	RoleUser       Role = "auth:user"
	RoleAdmin      Role = "auth:admin"
	RoleSuperAdmin Role = "auth:super_admin"
)

// Claims is the identity payload decoded from an access token
type Claims struct {
	UserID         string `json:"userID"`         // Empty for anonymous sessions
	Roles          []Role `json:"roles"`          // Role tags
	RefreshTokenID string `json:"refreshTokenID"` // ID of the refresh token bound to the access token
}

// IsAnonymous reports whether the claims carry the anonymous role
func (c *Claims) IsAnonymous() bool {
	return c.HasRole(RoleAnon)
}

// HasRole checks if the claims carry the given role
func (c *Claims) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the claims intersect the given roles
func (c *Claims) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the claims
func (c *Claims) Clone() *Claims {
	if c == nil {
		return nil
	}
	out := *c
	out.Roles = append([]Role(nil), c.Roles...)
	return &out
}
