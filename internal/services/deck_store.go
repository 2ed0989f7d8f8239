package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slidehub/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced deck, slide or element does not
// exist.
var ErrNotFound = errors.New("not found")

// StagedPosition is one coalesced position write ready to be flushed
type StagedPosition struct {
	ElementID string
	X         float64
	Y         float64
}

// DeckStore is the storage gateway the collaboration hub talks through.
// All operations are fallible; not-found is reported as ErrNotFound.
type DeckStore interface {
	ListDecks(ctx context.Context) ([]*models.Deck, error)
	GetDeck(ctx context.Context, id string) (*models.Deck, error)
	CreateDeck(ctx context.Context, title, author string) (*models.Deck, error)
	FindDeck(ctx context.Context, id string) (*models.Deck, error)
	FindSlide(ctx context.Context, id string) (*models.Slide, error)
	AddSlide(ctx context.Context, slide *models.Slide) error
	RemoveSlide(ctx context.Context, id string) error
	// FindElement returns the element together with the id of the deck it
	// belongs to, so callers can check session ownership.
	FindElement(ctx context.Context, id string) (*models.Element, string, error)
	AddElement(ctx context.Context, element *models.Element) error
	UpdateElement(ctx context.Context, element *models.Element) error
	UpdateElementPosition(ctx context.Context, id string, x, y float64) error
	RemoveElement(ctx context.Context, id string) error
	// FlushPositions writes a batch of coalesced positions in one
	// transaction. Elements deleted since staging are skipped; the count of
	// rows actually written is returned.
	FlushPositions(ctx context.Context, batch []StagedPosition) (int, error)
}

// SQLDeckStore manages decks, slides and elements in SQLite
type SQLDeckStore struct {
	database *sql.DB
}

// NewSQLDeckStore creates a new deck store
func NewSQLDeckStore(database *sql.DB) *SQLDeckStore {
	return &SQLDeckStore{
		database: database,
	}
}

// ListDecks returns all decks, most recent first, without their slide trees
func (ds *SQLDeckStore) ListDecks(ctx context.Context) ([]*models.Deck, error) {
	query := `SELECT id, title, author, created_at FROM decks ORDER BY created_at DESC`

	rows, err := ds.database.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query decks: %w", err)
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		var deck models.Deck
		if err := rows.Scan(&deck.ID, &deck.Title, &deck.Author, &deck.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, &deck)
	}

	return decks, rows.Err()
}

// FindDeck returns a deck row without its slides
func (ds *SQLDeckStore) FindDeck(ctx context.Context, id string) (*models.Deck, error) {
	query := `SELECT id, title, author, created_at FROM decks WHERE id = ?`

	var deck models.Deck
	err := ds.database.QueryRowContext(ctx, query, id).Scan(&deck.ID, &deck.Title, &deck.Author, &deck.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deck %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query deck: %w", err)
	}

	return &deck, nil
}

// GetDeck returns a deck with its full slide/element tree
func (ds *SQLDeckStore) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	deck, err := ds.FindDeck(ctx, id)
	if err != nil {
		return nil, err
	}

	slideQuery := `SELECT id, deck_id, sort_order FROM slides WHERE deck_id = ? ORDER BY sort_order ASC`
	rows, err := ds.database.QueryContext(ctx, slideQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query slides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slide models.Slide
		if err := rows.Scan(&slide.ID, &slide.DeckID, &slide.Order); err != nil {
			return nil, fmt.Errorf("failed to scan slide: %w", err)
		}
		deck.Slides = append(deck.Slides, &slide)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, slide := range deck.Slides {
		elements, err := ds.elementsOfSlide(ctx, slide.ID)
		if err != nil {
			return nil, err
		}
		slide.Elements = elements
	}

	return deck, nil
}

func (ds *SQLDeckStore) elementsOfSlide(ctx context.Context, slideID string) ([]*models.Element, error) {
	query := `SELECT id, slide_id, kind, content, x, y, width, height, color, style
		FROM elements WHERE slide_id = ?`

	rows, err := ds.database.QueryContext(ctx, query, slideID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var elements []*models.Element
	for rows.Next() {
		var el models.Element
		err := rows.Scan(&el.ID, &el.SlideID, &el.Type, &el.Content,
			&el.X, &el.Y, &el.Width, &el.Height, &el.Color, &el.Style)
		if err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		elements = append(elements, &el)
	}

	return elements, rows.Err()
}

// CreateDeck inserts a new deck seeded with one empty slide
func (ds *SQLDeckStore) CreateDeck(ctx context.Context, title, author string) (*models.Deck, error) {
	deck := &models.Deck{
		ID:        uuid.NewString(),
		Title:     title,
		Author:    author,
		CreatedAt: time.Now(),
	}
	firstSlide := &models.Slide{
		ID:     uuid.NewString(),
		DeckID: deck.ID,
		Order:  0,
	}

	tx, err := ds.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO decks (id, title, author, created_at) VALUES (?, ?, ?, ?)`,
		deck.ID, deck.Title, deck.Author, deck.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deck: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO slides (id, deck_id, sort_order) VALUES (?, ?, ?)`,
		firstSlide.ID, firstSlide.DeckID, firstSlide.Order)
	if err != nil {
		return nil, fmt.Errorf("failed to insert first slide: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deck: %w", err)
	}

	deck.Slides = []*models.Slide{firstSlide}
	return deck, nil
}

// FindSlide returns a slide by id
func (ds *SQLDeckStore) FindSlide(ctx context.Context, id string) (*models.Slide, error) {
	query := `SELECT id, deck_id, sort_order FROM slides WHERE id = ?`

	var slide models.Slide
	err := ds.database.QueryRowContext(ctx, query, id).Scan(&slide.ID, &slide.DeckID, &slide.Order)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("slide %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query slide: %w", err)
	}

	return &slide, nil
}

// AddSlide inserts a slide
func (ds *SQLDeckStore) AddSlide(ctx context.Context, slide *models.Slide) error {
	if slide.ID == "" {
		slide.ID = uuid.NewString()
	}

	query := `INSERT INTO slides (id, deck_id, sort_order) VALUES (?, ?, ?)`
	_, err := ds.database.ExecContext(ctx, query, slide.ID, slide.DeckID, slide.Order)
	if err != nil {
		return fmt.Errorf("failed to insert slide: %w", err)
	}

	return nil
}

// RemoveSlide deletes a slide; its elements cascade
func (ds *SQLDeckStore) RemoveSlide(ctx context.Context, id string) error {
	result, err := ds.database.ExecContext(ctx, `DELETE FROM slides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slide: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("slide %s: %w", id, ErrNotFound)
	}

	return nil
}

// FindElement returns an element and the deck it belongs to
func (ds *SQLDeckStore) FindElement(ctx context.Context, id string) (*models.Element, string, error) {
	query := `SELECT e.id, e.slide_id, e.kind, e.content, e.x, e.y, e.width, e.height, e.color, e.style, s.deck_id
		FROM elements e JOIN slides s ON s.id = e.slide_id
		WHERE e.id = ?`

	var el models.Element
	var deckID string
	err := ds.database.QueryRowContext(ctx, query, id).Scan(&el.ID, &el.SlideID, &el.Type, &el.Content,
		&el.X, &el.Y, &el.Width, &el.Height, &el.Color, &el.Style, &deckID)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query element: %w", err)
	}

	return &el, deckID, nil
}

// AddElement inserts an element
func (ds *SQLDeckStore) AddElement(ctx context.Context, element *models.Element) error {
	if element.ID == "" {
		element.ID = uuid.NewString()
	}

	query := `INSERT INTO elements (id, slide_id, kind, content, x, y, width, height, color, style)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := ds.database.ExecContext(ctx, query, element.ID, element.SlideID, element.Type, element.Content,
		element.X, element.Y, element.Width, element.Height, element.Color, element.Style)
	if err != nil {
		return fmt.Errorf("failed to insert element: %w", err)
	}

	return nil
}

// UpdateElement replaces an element's content and position
func (ds *SQLDeckStore) UpdateElement(ctx context.Context, element *models.Element) error {
	query := `UPDATE elements
		SET kind = ?, content = ?, x = ?, y = ?, width = ?, height = ?, color = ?, style = ?
		WHERE id = ?`

	result, err := ds.database.ExecContext(ctx, query, element.Type, element.Content,
		element.X, element.Y, element.Width, element.Height, element.Color, element.Style, element.ID)
	if err != nil {
		return fmt.Errorf("failed to update element: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("element %s: %w", element.ID, ErrNotFound)
	}

	return nil
}

// UpdateElementPosition writes only an element's coordinates
func (ds *SQLDeckStore) UpdateElementPosition(ctx context.Context, id string, x, y float64) error {
	result, err := ds.database.ExecContext(ctx, `UPDATE elements SET x = ?, y = ? WHERE id = ?`, x, y, id)
	if err != nil {
		return fmt.Errorf("failed to update element position: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("element %s: %w", id, ErrNotFound)
	}

	return nil
}

// RemoveElement deletes an element
func (ds *SQLDeckStore) RemoveElement(ctx context.Context, id string) error {
	result, err := ds.database.ExecContext(ctx, `DELETE FROM elements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete element: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("element %s: %w", id, ErrNotFound)
	}

	return nil
}

// FlushPositions writes a batch of coalesced positions in one transaction.
// An element deleted since its position was staged simply matches no row and
// is skipped, so one vanished element never aborts the batch.
func (ds *SQLDeckStore) FlushPositions(ctx context.Context, batch []StagedPosition) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := ds.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin flush transaction: %w", err)
	}
	defer tx.Rollback()

	written := 0
	for _, staged := range batch {
		result, err := tx.ExecContext(ctx, `UPDATE elements SET x = ?, y = ? WHERE id = ?`,
			staged.X, staged.Y, staged.ElementID)
		if err != nil {
			return 0, fmt.Errorf("failed to flush element %s: %w", staged.ElementID, err)
		}
		if rows, err := result.RowsAffected(); err == nil && rows > 0 {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit flush: %w", err)
	}

	return written, nil
}
