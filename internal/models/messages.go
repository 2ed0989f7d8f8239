package models

import "encoding/json"

// Inbound message types (client -> hub)
const (
	MSG_JOIN           = "session.join"
	MSG_CHANGE_ROLE    = "user.change_role"
	MSG_SLIDE_ADD      = "slide.add"
	MSG_SLIDE_REMOVE   = "slide.remove"
	MSG_ELEMENT_ADD    = "element.add"
	MSG_ELEMENT_MOVE   = "element.move"
	MSG_ELEMENT_UPDATE = "element.update"
	MSG_ELEMENT_REMOVE = "element.remove"
)

// Outbound message types (hub -> clients)
const (
	MSG_USER_JOINED       = "user.joined"
	MSG_USER_LIST         = "user.list"
	MSG_USER_LEFT         = "user.left"
	MSG_USER_ROLE_CHANGED = "user.role_changed"
	MSG_SLIDE_ADDED       = "slide.added"
	MSG_SLIDE_REMOVED     = "slide.removed"
	MSG_ELEMENT_ADDED     = "element.added"
	MSG_ELEMENT_UPDATED   = "element.updated"
	MSG_ELEMENT_POSITION  = "element.position"
	MSG_ELEMENT_REMOVED   = "element.removed"
	MSG_ERROR             = "error"
)

// ClientMessage is the envelope for inbound messages
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the envelope for outbound messages
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// JoinRequest asks to enter a deck's session
type JoinRequest struct {
	DeckID    string `json:"deckId"`
	Nickname  string `json:"nickname"`
	IsCreator bool   `json:"isCreator,omitempty"`
}

// ChangeRoleRequest changes another member's role (Creator only)
type ChangeRoleRequest struct {
	ConnectionID string `json:"connectionId"`
	Role         Role   `json:"role"`
}

// AddSlideRequest adds a slide to the caller's deck
type AddSlideRequest struct {
	DeckID string `json:"deckId"`
	Order  int    `json:"order"`
}

// RemoveSlideRequest removes a slide and its elements
type RemoveSlideRequest struct {
	SlideID string `json:"slideId"`
}

// AddElementRequest adds an element to a slide
type AddElementRequest struct {
	Element Element `json:"element"`
}

// MoveElementRequest stages a position-only change
type MoveElementRequest struct {
	ElementID string  `json:"elementId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// UpdateElementRequest replaces an element's content and position
type UpdateElementRequest struct {
	Element Element `json:"element"`
}

// RemoveElementRequest deletes an element
type RemoveElementRequest struct {
	ElementID string `json:"elementId"`
}

// UserListPayload is sent to a joiner with the current session membership
type UserListPayload struct {
	DeckID string         `json:"deckId"`
	Users  []*SessionUser `json:"users"`
}

// ElementPositionPayload is the minimal delta broadcast while a drag is in
// flight and the client already holds the full element
type ElementPositionPayload struct {
	ElementID string  `json:"elementId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ErrorPayload is sent only to the caller, never broadcast
type ErrorPayload struct {
	Message string `json:"message"`
}
