package models

import "time"

// ElementType enumerates the kinds of visual elements a slide can hold
type ElementType string

const (
	ElementText  ElementType = "text"
	ElementShape ElementType = "shape"
	ElementImage ElementType = "image"
)

// Deck represents a slide deck with its full slide/element tree
type Deck struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Slides    []*Slide  `json:"slides,omitempty"`
}

// Slide represents one slide of a deck. Order is a display sort key only;
// duplicates and gaps are allowed.
type Slide struct {
	ID       string     `json:"id"`
	DeckID   string     `json:"deckId"`
	Order    int        `json:"order"`
	Elements []*Element `json:"elements,omitempty"`
}

// Element represents a visual element on a slide. Content is an opaque
// string (text, style blob, image reference). Last write wins; there is no
// per-element version counter.
type Element struct {
	ID      string      `json:"id"`
	SlideID string      `json:"slideId"`
	Type    ElementType `json:"type"`
	Content string      `json:"content"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Color   string      `json:"color,omitempty"`
	Style   string      `json:"style,omitempty"`
}
