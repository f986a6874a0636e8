// Package sqlite implements the SQLite entity store for the KHATT annotation
// core: one relational table per entity kind, foreign keys between them, and
// a tagged-union specializations table keyed by annotation id.
package sqlite

// Schema DDL for all tables. Statements are idempotent so that re-attaching
// to an existing data directory keeps its contents.
const (
	createAuthors = `CREATE TABLE IF NOT EXISTS authors (
    author_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);`

	createEditors = `CREATE TABLE IF NOT EXISTS editors (
    editor_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);`

	createAnnotators = `CREATE TABLE IF NOT EXISTS annotators (
    annotator_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);`

	createBooks = `CREATE TABLE IF NOT EXISTS books (
    book_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    author_id INTEGER NOT NULL,
    FOREIGN KEY (author_id) REFERENCES authors(author_id) ON DELETE RESTRICT
);`

	createManuscripts = `CREATE TABLE IF NOT EXISTS manuscripts (
    manuscript_id INTEGER PRIMARY KEY AUTOINCREMENT,
    book_id INTEGER NOT NULL,
    editor_id INTEGER,
    title TEXT NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    text_direction TEXT NOT NULL CHECK (text_direction IN ('ltr', 'rtl')),
    page_direction TEXT NOT NULL CHECK (page_direction IN ('ltr', 'rtl')),
    filepath TEXT NOT NULL DEFAULT '',
    page_count INTEGER NOT NULL DEFAULT 0 CHECK (page_count >= 0),
    currently_marking INTEGER NOT NULL DEFAULT 1,
    currently_annotating INTEGER NOT NULL DEFAULT 1,
    CHECK (currently_marking >= 1 AND (page_count = 0 OR currently_marking <= page_count)),
    CHECK (currently_annotating >= 1 AND (page_count = 0 OR currently_annotating <= page_count)),
    FOREIGN KEY (book_id) REFERENCES books(book_id) ON DELETE RESTRICT,
    FOREIGN KEY (editor_id) REFERENCES editors(editor_id) ON DELETE RESTRICT
);`

	createTextFields = `CREATE TABLE IF NOT EXISTS text_fields (
    text_field_id INTEGER PRIMARY KEY AUTOINCREMENT,
    manuscript_id INTEGER NOT NULL,
    page INTEGER NOT NULL CHECK (page >= 1),
    bounding_box TEXT NOT NULL DEFAULT 'null',
    FOREIGN KEY (manuscript_id) REFERENCES manuscripts(manuscript_id) ON DELETE RESTRICT
);`

	createAnnotations = `CREATE TABLE IF NOT EXISTS annotations (
    annotation_id INTEGER PRIMARY KEY AUTOINCREMENT,
    manuscript_id INTEGER NOT NULL,
    page INTEGER NOT NULL CHECK (page >= 1),
    annotator_id INTEGER NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    label TEXT NOT NULL DEFAULT '',
    research_note TEXT NOT NULL DEFAULT '',
    bounding_box TEXT NOT NULL DEFAULT 'null',
    complete INTEGER NOT NULL DEFAULT 0 CHECK (complete IN (0, 1)),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (manuscript_id) REFERENCES manuscripts(manuscript_id) ON DELETE RESTRICT,
    FOREIGN KEY (annotator_id) REFERENCES annotators(annotator_id) ON DELETE RESTRICT
);`

	// The primary key on annotation_id allows one specialization per
	// annotation. UNIQUE on previous_line and next_line allows each line one
	// predecessor and one successor.
	createSpecializations = `CREATE TABLE IF NOT EXISTS specializations (
    annotation_id INTEGER PRIMARY KEY,
    kind TEXT NOT NULL CHECK (kind IN ('chapter', 'aside', 'annotated_line')),
    same_as INTEGER,
    text_field_id INTEGER,
    previous_line INTEGER UNIQUE,
    next_line INTEGER UNIQUE,
    hypo_text TEXT,
    CHECK (kind = 'chapter' OR same_as IS NULL),
    CHECK (kind = 'annotated_line' OR (text_field_id IS NULL AND previous_line IS NULL AND next_line IS NULL AND hypo_text IS NULL)),
    CHECK (same_as IS NULL OR same_as <> annotation_id),
    CHECK (previous_line IS NULL OR previous_line <> annotation_id),
    CHECK (next_line IS NULL OR next_line <> annotation_id),
    FOREIGN KEY (annotation_id) REFERENCES annotations(annotation_id) ON DELETE RESTRICT,
    FOREIGN KEY (same_as) REFERENCES specializations(annotation_id) ON DELETE SET NULL,
    FOREIGN KEY (text_field_id) REFERENCES text_fields(text_field_id) ON DELETE SET NULL,
    FOREIGN KEY (previous_line) REFERENCES specializations(annotation_id) ON DELETE SET NULL,
    FOREIGN KEY (next_line) REFERENCES specializations(annotation_id) ON DELETE SET NULL
);`
)

// Trigger DDL. Completion is one-way: a complete annotation never becomes
// incomplete again.
const (
	trgAnnotationsComplete = `CREATE TRIGGER IF NOT EXISTS trg_annotations_complete
BEFORE UPDATE OF complete ON annotations
WHEN OLD.complete = 1 AND NEW.complete = 0
BEGIN
    SELECT RAISE(ABORT, 'complete annotation cannot be reopened');
END;`
)

// Index DDL for common queries.
const (
	idxBooksAuthor              = `CREATE INDEX IF NOT EXISTS idx_books_author ON books(author_id);`
	idxManuscriptsBook          = `CREATE INDEX IF NOT EXISTS idx_manuscripts_book ON manuscripts(book_id);`
	idxManuscriptsEditor        = `CREATE INDEX IF NOT EXISTS idx_manuscripts_editor ON manuscripts(editor_id);`
	idxTextFieldsManuscript     = `CREATE INDEX IF NOT EXISTS idx_text_fields_manuscript ON text_fields(manuscript_id, page);`
	idxAnnotationsManuscript    = `CREATE INDEX IF NOT EXISTS idx_annotations_manuscript ON annotations(manuscript_id, page);`
	idxAnnotationsAnnotator     = `CREATE INDEX IF NOT EXISTS idx_annotations_annotator ON annotations(annotator_id);`
	idxSpecializationsKind      = `CREATE INDEX IF NOT EXISTS idx_specializations_kind ON specializations(kind);`
	idxSpecializationsTextField = `CREATE INDEX IF NOT EXISTS idx_specializations_text_field ON specializations(text_field_id);`
	idxSpecializationsSameAs    = `CREATE INDEX IF NOT EXISTS idx_specializations_same_as ON specializations(same_as);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createAuthors,
	createEditors,
	createAnnotators,
	createBooks,
	createManuscripts,
	createTextFields,
	createAnnotations,
	createSpecializations,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxBooksAuthor,
	idxManuscriptsBook,
	idxManuscriptsEditor,
	idxTextFieldsManuscript,
	idxAnnotationsManuscript,
	idxAnnotationsAnnotator,
	idxSpecializationsKind,
	idxSpecializationsTextField,
	idxSpecializationsSameAs,
}

// triggerDDL lists all CREATE TRIGGER statements.
var triggerDDL = []string{
	trgAnnotationsComplete,
}
