package models

// Role is a session member's permission level
type Role string

const (
	RoleCreator Role = "creator"
	RoleEditor  Role = "editor"
	RoleViewer  Role = "viewer"
)

// ValidRole reports whether r is one of the three known roles
func ValidRole(r Role) bool {
	return r == RoleCreator || r == RoleEditor || r == RoleViewer
}

// SessionUser is an ephemeral membership record tied to one websocket
// connection. It is never persisted with the deck.
type SessionUser struct {
	ConnectionID string `json:"connectionId"`
	Nickname     string `json:"nickname"`
	DeckID       string `json:"deckId"`
	Role         Role   `json:"role"`
}
