// Package wire defines the JSON shapes exchanged at the system edge and maps
// them to and from domain entities. References to authors, editors, and
// annotators travel as names; their ids never leave the system.
package wire

import (
	"encoding/json"
	"time"
)

// Author is the wire form of an author.
type Author struct {
	Name string `json:"name"`
}

// Editor is the wire form of an editor.
type Editor struct {
	Name string `json:"name"`
}

// Entry is the short form of a specialized annotation.
type Entry struct {
	ID       int64 `json:"id"`
	Complete bool  `json:"complete"`
}

// Book is the read form of a book with its manuscripts.
type Book struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Manuscripts []Manuscript `json:"manuscripts"`
}

// Manuscript is the read form of a manuscript with its annotation summary.
type Manuscript struct {
	ID                  int64   `json:"id"`
	Book                int64   `json:"book"`
	Title               string  `json:"title"`
	Editor              string  `json:"editor"`
	CurrentlyMarking    int     `json:"currently_marking"`
	CurrentlyAnnotating int     `json:"currently_annotating"`
	Filepath            string  `json:"filepath"`
	Date                string  `json:"date"`
	TextDirection       string  `json:"text_direction"`
	PageDirection       string  `json:"page_direction"`
	PageCount           int     `json:"page_count"`
	Chapters            []Entry `json:"chapters"`
	Asides              []Entry `json:"asides"`
	AnnotatedLines      []Entry `json:"annotated_lines"`
}

// Annotation is the read form of an annotation and its role. Role fields
// are present only for the matching kind.
type Annotation struct {
	ID           int64           `json:"id"`
	Manuscript   int64           `json:"manuscript"`
	Page         int             `json:"page"`
	Annotator    string          `json:"annotator"`
	Text         string          `json:"text"`
	Label        string          `json:"label"`
	ResearchNote string          `json:"research_note"`
	BoundingBox  json.RawMessage `json:"bounding_box"`
	Complete     bool            `json:"complete"`
	Kind         string          `json:"kind"`
	SameAs       *int64          `json:"same_as,omitempty"`
	TextField    *int64          `json:"text_field,omitempty"`
	PreviousLine *int64          `json:"previous_line,omitempty"`
	NextLine     *int64          `json:"next_line,omitempty"`
	HypoText     *string         `json:"hypo_text,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Page is the read form of one manuscript page.
type Page struct {
	Manuscript     int64        `json:"manuscript"`
	Page           int          `json:"page"`
	Chapters       []Annotation `json:"chapters"`
	Asides         []Annotation `json:"asides"`
	AnnotatedLines []Annotation `json:"annotated_lines"`
}

// TextField is the read form of a text field.
type TextField struct {
	ID          int64           `json:"id"`
	Manuscript  int64           `json:"manuscript"`
	Page        int             `json:"page"`
	BoundingBox json.RawMessage `json:"bounding_box"`
}

// BookWrite creates a book.
type BookWrite struct {
	Title  string `json:"title" validate:"required,notblank"`
	Author string `json:"author" validate:"required,notblank"`
}

// ManuscriptWrite creates a manuscript.
type ManuscriptWrite struct {
	Book                int64  `json:"book" validate:"required,gt=0"`
	Title               string `json:"title" validate:"required,notblank"`
	Editor              string `json:"editor"`
	Date                string `json:"date"`
	TextDirection       string `json:"text_direction" validate:"omitempty,oneof=ltr rtl"`
	PageDirection       string `json:"page_direction" validate:"omitempty,oneof=ltr rtl"`
	Filepath            string `json:"filepath" validate:"omitempty,scanpath"`
	PageCount           int    `json:"page_count" validate:"gte=0"`
	CurrentlyMarking    int    `json:"currently_marking" validate:"gte=0"`
	CurrentlyAnnotating int    `json:"currently_annotating" validate:"gte=0"`
}

// ManuscriptPatch updates a manuscript. Absent fields are unchanged.
type ManuscriptPatch struct {
	Title               *string `json:"title" validate:"omitempty,notblank"`
	Editor              *string `json:"editor"`
	Date                *string `json:"date"`
	TextDirection       *string `json:"text_direction" validate:"omitempty,oneof=ltr rtl"`
	PageDirection       *string `json:"page_direction" validate:"omitempty,oneof=ltr rtl"`
	Filepath            *string `json:"filepath" validate:"omitempty,scanpath"`
	PageCount           *int    `json:"page_count" validate:"omitempty,gte=0"`
	CurrentlyMarking    *int    `json:"currently_marking" validate:"omitempty,gte=1"`
	CurrentlyAnnotating *int    `json:"currently_annotating" validate:"omitempty,gte=1"`
}

// AnnotationWrite creates an annotation. With Kind set the annotation is
// specialized in the same transaction; Complete requires a Kind.
type AnnotationWrite struct {
	Manuscript   int64           `json:"manuscript" validate:"required,gt=0"`
	Page         int             `json:"page" validate:"required,gte=1"`
	Text         string          `json:"text"`
	Label        string          `json:"label"`
	ResearchNote string          `json:"research_note"`
	BoundingBox  json.RawMessage `json:"bounding_box" validate:"geometry"`
	Complete     bool            `json:"complete"`
	Kind         string          `json:"kind" validate:"omitempty,oneof=chapter aside annotated_line"`
	SameAs       *int64          `json:"same_as" validate:"omitempty,gt=0"`
	Line         *LineFields     `json:"line"`
}

// AnnotationPatch edits an incomplete annotation.
type AnnotationPatch struct {
	Text         *string         `json:"text"`
	Label        *string         `json:"label"`
	ResearchNote *string         `json:"research_note"`
	BoundingBox  json.RawMessage `json:"bounding_box" validate:"geometry"`
}

// ChapterWrite specializes an annotation as a chapter or re-aligns one.
type ChapterWrite struct {
	SameAs *int64 `json:"same_as" validate:"omitempty,gt=0"`
}

// LineFields is the payload of an annotated line.
type LineFields struct {
	TextField    *int64  `json:"text_field" validate:"omitempty,gt=0"`
	PreviousLine *int64  `json:"previous_line" validate:"omitempty,gt=0"`
	NextLine     *int64  `json:"next_line" validate:"omitempty,gt=0"`
	HypoText     *string `json:"hypo_text"`
}

// AnnotatedLineWrite creates an annotation and its line role together. The
// nested annotation carries no kind of its own.
type AnnotatedLineWrite struct {
	Annotation AnnotationWrite `json:"annotation" validate:"required"`
	LineFields
}

// InsertAfterWrite moves a line after the line named in the route.
type InsertAfterWrite struct {
	NewLine int64 `json:"new_line" validate:"required,gt=0"`
}

// TextFieldWrite creates a text field.
type TextFieldWrite struct {
	Manuscript  int64           `json:"manuscript" validate:"required,gt=0"`
	Page        int             `json:"page" validate:"required,gte=1"`
	BoundingBox json.RawMessage `json:"bounding_box" validate:"geometry"`
}

// HypoTextWrite sets or clears the hypothetical reading of a line.
type HypoTextWrite struct {
	HypoText *string `json:"hypo_text"`
}

// TextFieldAssign sets or clears the text field of a line.
type TextFieldAssign struct {
	TextField *int64 `json:"text_field" validate:"omitempty,gt=0"`
}
