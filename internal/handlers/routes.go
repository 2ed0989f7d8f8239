package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes wires all HTTP routes
func SetupRoutes(wsHandler *WebSocketHandler, deckHandler *DeckHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ws", wsHandler.HandleConnection)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/decks", deckHandler.ListDecks).Methods(http.MethodGet)
	api.HandleFunc("/decks", deckHandler.CreateDeck).Methods(http.MethodPost)
	api.HandleFunc("/decks/{id}", deckHandler.GetDeck).Methods(http.MethodGet)

	return router
}
