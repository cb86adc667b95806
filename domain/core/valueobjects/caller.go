package valueobjects

// Caller is the already authenticated identity performing an operation
type Caller struct {
	UserID   string
	Username string
	Roles    Roles
}

// NewCaller creates a caller from the identity supplied by the auth layer
func NewCaller(userID, username string, roles ...string) Caller {
	return Caller{
		UserID:   userID,
		Username: username,
		Roles:    NewRoles(roles...),
	}
}

// IsAdmin reports whether the caller holds an admin role
func (c Caller) IsAdmin() bool {
	return IsAdmin(c.Roles)
}

// DisplayName is the name shown to other users, falling back to the user id
func (c Caller) DisplayName() string {
	if c.Username != "" {
		return c.Username
	}
	return c.UserID
}
