package types

import (
	"encoding/json"
	"errors"
)

// Text and page direction values.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// DefaultDirection is used when a manuscript is created without a direction.
const DefaultDirection = DirectionRTL

// BoundingBox is opaque on-page geometry (rectangle or polygon coordinates).
// It is stored and returned verbatim and never interpreted.
type BoundingBox = json.RawMessage

// Book groups the manuscripts of one work.
type Book struct {
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	AuthorID int64  `json:"author_id"`
}

// Manuscript is one physical copy of a book, scanned page by page.
// PageCount is zero when the number of pages is not known.
type Manuscript struct {
	ManuscriptID        int64  `json:"manuscript_id"`
	BookID              int64  `json:"book_id"`
	EditorID            *int64 `json:"editor_id"`
	Title               string `json:"title"`
	Date                string `json:"date"`
	TextDirection       string `json:"text_direction"`
	PageDirection       string `json:"page_direction"`
	Filepath            string `json:"filepath"`
	PageCount           int    `json:"page_count"`
	CurrentlyMarking    int    `json:"currently_marking"`
	CurrentlyAnnotating int    `json:"currently_annotating"`
}

// ValidPage reports whether page addresses a page of the manuscript.
// Pages are numbered from 1; with an unknown page count any positive page is
// accepted.
func (m *Manuscript) ValidPage(page int) bool {
	if page < 1 {
		return false
	}
	return m.PageCount == 0 || page <= m.PageCount
}

// Validate checks directions and page indices.
func (m *Manuscript) Validate() error {
	if m.Title == "" {
		return ErrInvalidName
	}
	if !validDirection(m.TextDirection) || !validDirection(m.PageDirection) {
		return ErrInvalidDirection
	}
	if m.PageCount < 0 {
		return ErrInvalidPage
	}
	if !m.ValidPage(m.CurrentlyMarking) || !m.ValidPage(m.CurrentlyAnnotating) {
		return ErrInvalidPage
	}
	return nil
}

// TextField is a region of a page that holds an ordered sequence of lines.
type TextField struct {
	TextFieldID  int64       `json:"text_field_id"`
	ManuscriptID int64       `json:"manuscript_id"`
	Page         int         `json:"page"`
	BoundingBox  BoundingBox `json:"bounding_box"`
}

func validDirection(d string) bool {
	return d == DirectionLTR || d == DirectionRTL
}

// Catalog errors.
var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidPage      = errors.New("page out of range")
)
