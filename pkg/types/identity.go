package types

import "errors"

// IdentityKind names a kind of reference entity that is deduplicated by name.
type IdentityKind string

// Identity kinds.
const (
	KindAuthor    IdentityKind = "author"
	KindEditor    IdentityKind = "editor"
	KindAnnotator IdentityKind = "annotator"
)

// identityTables maps each identity kind to the table that stores it.
var identityTables = map[IdentityKind]string{
	KindAuthor:    AuthorsTable,
	KindEditor:    EditorsTable,
	KindAnnotator: AnnotatorsTable,
}

// Table returns the table name for the kind, or ErrInvalidData if the kind
// is not recognized.
func (k IdentityKind) Table() (string, error) {
	name, ok := identityTables[k]
	if !ok {
		return "", ErrInvalidData
	}
	return name, nil
}

// Author wrote a book. Names are unique.
type Author struct {
	AuthorID int64  `json:"author_id"`
	Name     string `json:"name"`
}

// Editor prepared a manuscript edition. Names are unique.
type Editor struct {
	EditorID int64  `json:"editor_id"`
	Name     string `json:"name"`
}

// Annotator transcribes annotations. Names are unique.
type Annotator struct {
	AnnotatorID int64  `json:"annotator_id"`
	Name        string `json:"name"`
}

// Identity errors.
var (
	ErrInvalidName       = errors.New("invalid name")
	ErrDuplicateIdentity = errors.New("duplicate identity name")
)
