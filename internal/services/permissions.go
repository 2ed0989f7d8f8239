package services

import "slidehub/internal/models"

// Action identifies a mutating session operation for authorization checks
type Action int

const (
	ActionChangeRole Action = iota
	ActionAddSlide
	ActionRemoveSlide
	ActionAddElement
	ActionMoveElement
	ActionUpdateElement
	ActionRemoveElement
)

// PermissionError names the role an action requires. Its message is sent
// back to the caller verbatim.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

var (
	errCreatorOnlyRole   = &PermissionError{Message: "Only the Creator can change user roles"}
	errCreatorOnlySlides = &PermissionError{Message: "Only the Creator can add or remove slides"}
	errEditorsOnlyAdd    = &PermissionError{Message: "Only Editors and the Creator can add elements"}
	errEditorsOnlyChange = &PermissionError{Message: "Only Editors and the Creator can change elements"}
	errDifferentSession  = &PermissionError{Message: "Target belongs to a different session"}
)

// CheckPermission decides whether user may perform action against a target
// in deck targetDeckID. Pure function of role, action and session
// membership; any cross-session reference is denied regardless of role.
func CheckPermission(user *models.SessionUser, action Action, targetDeckID string) error {
	if user == nil {
		return &PermissionError{Message: "Join a session first"}
	}
	if user.DeckID != targetDeckID {
		return errDifferentSession
	}

	switch action {
	case ActionChangeRole:
		if user.Role != models.RoleCreator {
			return errCreatorOnlyRole
		}
	case ActionAddSlide, ActionRemoveSlide:
		if user.Role != models.RoleCreator {
			return errCreatorOnlySlides
		}
	case ActionAddElement:
		if user.Role != models.RoleCreator && user.Role != models.RoleEditor {
			return errEditorsOnlyAdd
		}
	case ActionMoveElement, ActionUpdateElement, ActionRemoveElement:
		if user.Role != models.RoleCreator && user.Role != models.RoleEditor {
			return errEditorsOnlyChange
		}
	}

	return nil
}
