package types

// Standard table names for Session.GetTable.
const (
	AuthorsTable         = "authors"
	EditorsTable         = "editors"
	AnnotatorsTable      = "annotators"
	BooksTable           = "books"
	ManuscriptsTable     = "manuscripts"
	TextFieldsTable      = "text_fields"
	AnnotationsTable     = "annotations"
	SpecializationsTable = "specializations"
)

// StandardTableNames lists all standard table names in dependency order.
var StandardTableNames = []string{
	AuthorsTable,
	EditorsTable,
	AnnotatorsTable,
	BooksTable,
	ManuscriptsTable,
	TextFieldsTable,
	AnnotationsTable,
	SpecializationsTable,
}
