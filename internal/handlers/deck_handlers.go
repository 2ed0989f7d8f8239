package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"slidehub/internal/services"

	"github.com/gorilla/mux"
)

// DeckHandler handles HTTP requests for deck listing and creation
type DeckHandler struct {
	store services.DeckStore
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(store services.DeckStore) *DeckHandler {
	return &DeckHandler{
		store: store,
	}
}

// CreateDeckRequest represents a deck creation request
type CreateDeckRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// ListDecks returns all decks, most recent first
// GET /api/decks
func (dh *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := dh.store.ListDecks(r.Context())
	if err != nil {
		log.Printf("Failed to list decks: %v", err)
		http.Error(w, "Failed to list decks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decks)
}

// GetDeck returns one deck with its full slide/element tree
// GET /api/decks/{id}
func (dh *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deck, err := dh.store.GetDeck(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			http.Error(w, "Deck not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to get deck %s: %v", id, err)
		http.Error(w, "Failed to get deck", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deck)
}

// CreateDeck creates a deck seeded with one empty slide
// POST /api/decks
func (dh *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	deck, err := dh.store.CreateDeck(r.Context(), req.Title, req.Author)
	if err != nil {
		log.Printf("Failed to create deck: %v", err)
		http.Error(w, "Failed to create deck", http.StatusInternalServerError)
		return
	}

	log.Printf("Deck created: id=%s title=%q", deck.ID, deck.Title)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deck)
}
