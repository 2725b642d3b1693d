package session

// Session is the server-side record behind a signed session token. Deleting
// the record revokes every token that names its SessionID.
type Session struct {
	SessionID string
	UserID    string
	Email     string

	EmailConfirmed bool

	CreatedAt int64
	ExpiresAt int64
}
