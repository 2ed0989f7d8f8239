package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"slidehub/internal/models"
)

const (
	// opTimeout bounds each storage call made on behalf of one message.
	opTimeout = 5 * time.Second
	// flushTimeout bounds one flush batch so a hung storage call cannot
	// block the ticker indefinitely.
	flushTimeout = 5 * time.Second

	// creatorNickMarker is the legacy nickname marker preferred when
	// promoting a successor after the Creator disconnects. Kept for client
	// compatibility; any member can co-opt it via their nickname.
	creatorNickMarker = "(Creator)"
)

// Broadcaster delivers outbound messages to session members
type Broadcaster interface {
	Broadcast(deckID string, msg *models.ServerMessage, exceptConnectionID string)
	SendTo(connectionID string, msg *models.ServerMessage)
}

// CollabService is the realtime protocol surface: it validates each
// inbound operation against the authorization policy, applies it to
// storage or the position buffer, and broadcasts the change to the deck's
// session group. Errors go only to the caller.
type CollabService struct {
	store       DeckStore
	directory   *SessionDirectory
	buffer      *PositionBuffer
	broadcaster Broadcaster

	quietPeriod   time.Duration
	flushInterval time.Duration
}

// NewCollabService creates the collaboration hub
func NewCollabService(store DeckStore, directory *SessionDirectory, buffer *PositionBuffer, quietPeriod, flushInterval time.Duration) *CollabService {
	return &CollabService{
		store:         store,
		directory:     directory,
		buffer:        buffer,
		quietPeriod:   quietPeriod,
		flushInterval: flushInterval,
	}
}

// SetBroadcaster wires the outbound message channel
func (cs *CollabService) SetBroadcaster(broadcaster Broadcaster) {
	cs.broadcaster = broadcaster
}

// HandleMessage dispatches one inbound client message
func (cs *CollabService) HandleMessage(connectionID string, msg *models.ClientMessage) {
	switch msg.Type {
	case models.MSG_JOIN:
		var req models.JoinRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.Join(connectionID, &req)
		}
	case models.MSG_CHANGE_ROLE:
		var req models.ChangeRoleRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.ChangeRole(connectionID, &req)
		}
	case models.MSG_SLIDE_ADD:
		var req models.AddSlideRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.AddSlide(connectionID, &req)
		}
	case models.MSG_SLIDE_REMOVE:
		var req models.RemoveSlideRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.RemoveSlide(connectionID, req.SlideID)
		}
	case models.MSG_ELEMENT_ADD:
		var req models.AddElementRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.AddElement(connectionID, &req.Element)
		}
	case models.MSG_ELEMENT_MOVE:
		var req models.MoveElementRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.UpdateElementPosition(connectionID, req.ElementID, req.X, req.Y)
		}
	case models.MSG_ELEMENT_UPDATE:
		var req models.UpdateElementRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.UpdateElement(connectionID, &req.Element)
		}
	case models.MSG_ELEMENT_REMOVE:
		var req models.RemoveElementRequest
		if cs.decode(connectionID, msg.Payload, &req) {
			cs.RemoveElement(connectionID, req.ElementID)
		}
	default:
		cs.sendError(connectionID, "Unknown message type: "+msg.Type)
	}
}

func (cs *CollabService) decode(connectionID string, payload json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		cs.sendError(connectionID, "Invalid payload: "+err.Error())
		return false
	}
	return true
}

// Join enters the caller into a deck's session. The first member to claim
// isCreator becomes Creator; everyone else starts as Viewer.
func (cs *CollabService) Join(connectionID string, req *models.JoinRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := cs.store.FindDeck(ctx, req.DeckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	// A connection re-joining abandons its previous session first, so the
	// old group sees the leave and any creator succession runs there.
	if cs.directory.Lookup(connectionID) != nil {
		cs.Disconnect(connectionID)
	}

	role := models.RoleViewer
	if req.IsCreator && cs.directory.CreatorOf(req.DeckID) == nil {
		role = models.RoleCreator
	}

	user := cs.directory.Register(connectionID, req.Nickname, req.DeckID, role)

	cs.broadcaster.Broadcast(req.DeckID, &models.ServerMessage{
		Type:    models.MSG_USER_JOINED,
		Payload: user,
	}, "")

	cs.broadcaster.SendTo(connectionID, &models.ServerMessage{
		Type: models.MSG_USER_LIST,
		Payload: &models.UserListPayload{
			DeckID: req.DeckID,
			Users:  cs.directory.UsersOf(req.DeckID),
		},
	})

	log.Printf("User %q joined deck %s as %s", req.Nickname, req.DeckID, role)
}

// ChangeRole updates another member's role. Creator only.
func (cs *CollabService) ChangeRole(connectionID string, req *models.ChangeRoleRequest) {
	caller := cs.directory.Lookup(connectionID)

	target := cs.directory.Lookup(req.ConnectionID)
	if target == nil {
		cs.sendError(connectionID, "User not found")
		return
	}

	if err := CheckPermission(caller, ActionChangeRole, target.DeckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	if !models.ValidRole(req.Role) {
		cs.sendError(connectionID, "Unknown role: "+string(req.Role))
		return
	}

	updated := cs.directory.SetRole(req.ConnectionID, req.Role)
	if updated == nil {
		cs.sendError(connectionID, "User not found")
		return
	}

	cs.broadcaster.Broadcast(target.DeckID, &models.ServerMessage{
		Type:    models.MSG_USER_ROLE_CHANGED,
		Payload: updated,
	}, "")
}

// AddSlide persists a new slide. Creator only.
func (cs *CollabService) AddSlide(connectionID string, req *models.AddSlideRequest) {
	caller := cs.directory.Lookup(connectionID)
	if err := CheckPermission(caller, ActionAddSlide, req.DeckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	slide := &models.Slide{DeckID: req.DeckID, Order: req.Order}
	if err := cs.store.AddSlide(ctx, slide); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	cs.broadcaster.Broadcast(req.DeckID, &models.ServerMessage{
		Type:    models.MSG_SLIDE_ADDED,
		Payload: slide,
	}, connectionID)
}

// RemoveSlide deletes a slide and, by cascade, its elements. Creator only.
func (cs *CollabService) RemoveSlide(connectionID string, slideID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	slide, err := cs.store.FindSlide(ctx, slideID)
	if err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	caller := cs.directory.Lookup(connectionID)
	if err := CheckPermission(caller, ActionRemoveSlide, slide.DeckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	if err := cs.store.RemoveSlide(ctx, slideID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	cs.broadcaster.Broadcast(slide.DeckID, &models.ServerMessage{
		Type:    models.MSG_SLIDE_REMOVED,
		Payload: &models.RemoveSlideRequest{SlideID: slideID},
	}, connectionID)
}

// AddElement persists a new element. Creator or Editor.
func (cs *CollabService) AddElement(connectionID string, element *models.Element) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	slide, err := cs.store.FindSlide(ctx, element.SlideID)
	if err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	caller := cs.directory.Lookup(connectionID)
	if err := CheckPermission(caller, ActionAddElement, slide.DeckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	if err := cs.store.AddElement(ctx, element); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	cs.broadcaster.Broadcast(slide.DeckID, &models.ServerMessage{
		Type:    models.MSG_ELEMENT_ADDED,
		Payload: element,
	}, connectionID)
}

// UpdateElementPosition stages a position-only change. The first update of
// a burst validates the element against storage and broadcasts a full
// snapshot so late joiners can render a complete object; while an entry is
// pending, later updates broadcast only the id/x/y delta. Nothing is
// persisted here; the flusher writes once the element goes quiet.
func (cs *CollabService) UpdateElementPosition(connectionID string, elementID string, x, y float64) {
	caller := cs.directory.Lookup(connectionID)
	if caller == nil {
		cs.sendError(connectionID, "Join a session first")
		return
	}
	if err := CheckPermission(caller, ActionMoveElement, caller.DeckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	now := time.Now()

	if _, _, pendingDeckID, pending := cs.buffer.Peek(elementID); pending {
		if pendingDeckID != caller.DeckID {
			cs.sendOpError(connectionID, errDifferentSession)
			return
		}
		cs.buffer.Stage(elementID, pendingDeckID, x, y, now)
		cs.broadcaster.Broadcast(caller.DeckID, &models.ServerMessage{
			Type:    models.MSG_ELEMENT_POSITION,
			Payload: &models.ElementPositionPayload{ElementID: elementID, X: x, Y: y},
		}, connectionID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	element, deckID, err := cs.store.FindElement(ctx, elementID)
	if err != nil {
		cs.sendOpError(connectionID, err)
		return
	}
	if deckID != caller.DeckID {
		cs.sendOpError(connectionID, errDifferentSession)
		return
	}

	cs.buffer.Stage(elementID, deckID, x, y, now)

	element.X = x
	element.Y = y
	cs.broadcaster.Broadcast(caller.DeckID, &models.ServerMessage{
		Type:    models.MSG_ELEMENT_UPDATED,
		Payload: element,
	}, connectionID)
}

// UpdateElement persists a full content+position update immediately. The
// pending entry is cleared before the write so a late flush cannot clobber
// the newer value.
func (cs *CollabService) UpdateElement(connectionID string, element *models.Element) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	existing, deckID, err := cs.store.FindElement(ctx, element.ID)
	if err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	caller := cs.directory.Lookup(connectionID)
	if err := CheckPermission(caller, ActionUpdateElement, deckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	// Elements cannot change slides through an update; the broadcast must
	// carry the slide the element actually sits on.
	element.SlideID = existing.SlideID

	cs.buffer.Clear(element.ID)

	if err := cs.store.UpdateElement(ctx, element); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	cs.broadcaster.Broadcast(deckID, &models.ServerMessage{
		Type:    models.MSG_ELEMENT_UPDATED,
		Payload: element,
	}, connectionID)
}

// RemoveElement deletes an element and drops any staged position for it.
func (cs *CollabService) RemoveElement(connectionID string, elementID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, deckID, err := cs.store.FindElement(ctx, elementID)
	if err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	caller := cs.directory.Lookup(connectionID)
	if err := CheckPermission(caller, ActionRemoveElement, deckID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	cs.buffer.Clear(elementID)

	if err := cs.store.RemoveElement(ctx, elementID); err != nil {
		cs.sendOpError(connectionID, err)
		return
	}

	cs.broadcaster.Broadcast(deckID, &models.ServerMessage{
		Type:    models.MSG_ELEMENT_REMOVED,
		Payload: &models.RemoveElementRequest{ElementID: elementID},
	}, connectionID)
}

// Disconnect removes the connection's user from the session. If the
// Creator leaves and members remain, exactly one successor is promoted.
func (cs *CollabService) Disconnect(connectionID string) {
	user := cs.directory.Remove(connectionID)
	if user == nil {
		return
	}

	cs.broadcaster.Broadcast(user.DeckID, &models.ServerMessage{
		Type:    models.MSG_USER_LEFT,
		Payload: user,
	}, "")

	log.Printf("User %q left deck %s", user.Nickname, user.DeckID)

	if user.Role != models.RoleCreator {
		return
	}

	remaining := cs.directory.UsersOf(user.DeckID)
	if len(remaining) == 0 {
		return
	}

	successor := remaining[0]
	for _, member := range remaining {
		if strings.Contains(member.Nickname, creatorNickMarker) {
			successor = member
			break
		}
	}

	promoted := cs.directory.SetRole(successor.ConnectionID, models.RoleCreator)
	if promoted == nil {
		return
	}

	cs.broadcaster.Broadcast(user.DeckID, &models.ServerMessage{
		Type:    models.MSG_USER_ROLE_CHANGED,
		Payload: promoted,
	}, "")

	log.Printf("User %q promoted to creator of deck %s", promoted.Nickname, user.DeckID)
}

// RunFlusher writes quiesced positions to storage on a fixed period until
// ctx is canceled. Started once at process start, not per connection.
func (cs *CollabService) RunFlusher(ctx context.Context) {
	ticker := time.NewTicker(cs.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cs.FlushPending(now)
		}
	}
}

// FlushPending drains entries that have been idle for the quiet period and
// persists them in one batch. A failed batch is dropped and logged; the
// next staged update for an element re-attempts its write.
func (cs *CollabService) FlushPending(now time.Time) {
	due := cs.buffer.DrainDue(now, cs.quietPeriod)
	if len(due) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	written, err := cs.store.FlushPositions(ctx, due)
	if err != nil {
		log.Printf("Position flush failed, dropped %d entries: %v", len(due), err)
		return
	}
	if written < len(due) {
		log.Printf("Position flush skipped %d deleted elements", len(due)-written)
	}
}

func (cs *CollabService) sendError(connectionID string, message string) {
	cs.broadcaster.SendTo(connectionID, &models.ServerMessage{
		Type:    models.MSG_ERROR,
		Payload: &models.ErrorPayload{Message: message},
	})
}

func (cs *CollabService) sendOpError(connectionID string, err error) {
	var permErr *PermissionError
	if errors.As(err, &permErr) {
		cs.sendError(connectionID, permErr.Message)
		return
	}
	cs.sendError(connectionID, err.Error())
}
