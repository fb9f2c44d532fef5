package domain

// AnonymousName is the display name given to callers without a session.
const AnonymousName = "anonymous"

// Identity is the caller of a request as resolved from its session.
// The zero value is the anonymous caller.
type Identity struct {
	UserID int64
	Name   string
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{Name: AnonymousName}
}

// IdentityOf returns the authenticated identity for user.
func IdentityOf(user *User) Identity {
	if user == nil || user.ID == 0 {
		return Anonymous()
	}
	return Identity{UserID: user.ID, Name: user.Name}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

// DisplayName never returns an empty string.
func (i Identity) DisplayName() string {
	if !i.IsAuthenticated() || i.Name == "" {
		return AnonymousName
	}
	return i.Name
}
