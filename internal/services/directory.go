package services

import (
	"sync"

	"slidehub/internal/models"
)

// SessionDirectory is the single source of truth for who is online, in
// which session, with which role. Purely in-memory; membership is rebuilt
// from scratch when clients reconnect after a restart.
type SessionDirectory struct {
	mu    sync.RWMutex
	users map[string]*models.SessionUser // connection id -> user
	order []string                       // connection ids in registration order
}

// NewSessionDirectory creates an empty directory
func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{
		users: make(map[string]*models.SessionUser),
	}
}

// Register adds a user for a connection and returns the record
func (d *SessionDirectory) Register(connectionID, nickname, deckID string, role models.Role) *models.SessionUser {
	d.mu.Lock()
	defer d.mu.Unlock()

	user := &models.SessionUser{
		ConnectionID: connectionID,
		Nickname:     nickname,
		DeckID:       deckID,
		Role:         role,
	}

	if _, exists := d.users[connectionID]; !exists {
		d.order = append(d.order, connectionID)
	}
	d.users[connectionID] = user

	return user
}

// Lookup returns the user for a connection, or nil if not registered
func (d *SessionDirectory) Lookup(connectionID string) *models.SessionUser {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users[connectionID]
}

// UsersOf returns the members of a deck's session in registration order
func (d *SessionDirectory) UsersOf(deckID string) []*models.SessionUser {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var users []*models.SessionUser
	for _, connectionID := range d.order {
		if user, ok := d.users[connectionID]; ok && user.DeckID == deckID {
			users = append(users, user)
		}
	}
	return users
}

// CreatorOf returns the current Creator of a deck's session, or nil
func (d *SessionDirectory) CreatorOf(deckID string) *models.SessionUser {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, connectionID := range d.order {
		if user, ok := d.users[connectionID]; ok && user.DeckID == deckID && user.Role == models.RoleCreator {
			return user
		}
	}
	return nil
}

// SetRole updates a registered user's role and returns the updated record,
// or nil if the connection is unknown
func (d *SessionDirectory) SetRole(connectionID string, role models.Role) *models.SessionUser {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[connectionID]
	if !ok {
		return nil
	}
	user.Role = role
	return user
}

// Remove deletes a connection's user and returns it, or nil if absent
func (d *SessionDirectory) Remove(connectionID string) *models.SessionUser {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[connectionID]
	if !ok {
		return nil
	}
	delete(d.users, connectionID)

	for i, id := range d.order {
		if id == connectionID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}

	return user
}
