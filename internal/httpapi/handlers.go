package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/khatt/internal/wire"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// idParam parses a positive integer path parameter.
func (s *Server) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(c, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional non-negative integer query parameter.
func (s *Server) queryInt(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		s.badRequest(c, "invalid_filter", name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

// bind decodes the JSON body into v.
func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.badRequest(c, "invalid_json", err.Error())
		return false
	}
	return true
}

// respond writes v with status, or the mapped error.
func (s *Server) respond(c *gin.Context, status int, v any, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, v)
}

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.boundary.Books()
	s.respond(c, http.StatusOK, books, err)
}

func (s *Server) createBook(c *gin.Context) {
	var w wire.BookWrite
	if !s.bind(c, &w) {
		return
	}
	book, err := s.boundary.CreateBook(w)
	s.respond(c, http.StatusCreated, book, err)
}

func (s *Server) getBook(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	book, err := s.boundary.Book(id)
	s.respond(c, http.StatusOK, book, err)
}

func (s *Server) listManuscripts(c *gin.Context) {
	book, ok := s.queryInt(c, "book")
	if !ok {
		return
	}
	list, err := s.boundary.Manuscripts(book)
	s.respond(c, http.StatusOK, list, err)
}

func (s *Server) createManuscript(c *gin.Context) {
	var w wire.ManuscriptWrite
	if !s.bind(c, &w) {
		return
	}
	m, err := s.boundary.CreateManuscript(w)
	s.respond(c, http.StatusCreated, m, err)
}

func (s *Server) getManuscript(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	m, err := s.boundary.Manuscript(id)
	s.respond(c, http.StatusOK, m, err)
}

func (s *Server) updateManuscript(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.ManuscriptPatch
	if !s.bind(c, &w) {
		return
	}
	m, err := s.boundary.UpdateManuscript(id, w)
	s.respond(c, http.StatusOK, m, err)
}

func (s *Server) getPage(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	page, ok := s.idParam(c, "page")
	if !ok {
		return
	}
	p, err := s.boundary.Page(id, int(page))
	s.respond(c, http.StatusOK, p, err)
}

// getScan serves the manuscript's scan file from the scan directory.
func (s *Server) getScan(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	if s.scanDir == "" {
		s.fail(c, types.ErrNotFound)
		return
	}
	rel, err := s.boundary.ScanPath(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if rel == "" {
		s.fail(c, types.ErrNotFound)
		return
	}
	if !wire.ValidScanPath(rel) {
		s.log(c).Warn("rejected scan path", "manuscript_id", id, "filepath", rel)
		s.fail(c, types.ErrInvalidData)
		return
	}
	full := filepath.Join(s.scanDir, filepath.FromSlash(rel))
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		s.fail(c, types.ErrNotFound)
		return
	}
	c.File(full)
}

func (s *Server) createAnnotation(c *gin.Context) {
	var w wire.AnnotationWrite
	if !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.CreateAnnotation(c.GetHeader(AnnotatorHeader), w)
	s.respond(c, http.StatusCreated, ann, err)
}

func (s *Server) getAnnotation(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	ann, err := s.boundary.Annotation(id)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) updateAnnotation(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.AnnotationPatch
	if !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.UpdateAnnotation(id, w)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) specializeChapter(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.ChapterWrite
	if c.Request.ContentLength != 0 && !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.SpecializeChapter(id, w)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) specializeAside(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	ann, err := s.boundary.SpecializeAside(id)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) specializeLine(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.LineFields
	if c.Request.ContentLength != 0 && !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.SpecializeLine(id, w)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) markComplete(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	ann, err := s.boundary.MarkComplete(id)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) alignChapter(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.ChapterWrite
	if !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.AlignChapter(id, w)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) createLine(c *gin.Context) {
	var w wire.AnnotatedLineWrite
	if !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.CreateLine(c.GetHeader(AnnotatorHeader), w)
	s.respond(c, http.StatusCreated, ann, err)
}

func (s *Server) getLine(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	ann, err := s.boundary.Line(id)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) getChain(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	chain, err := s.boundary.LineChain(id)
	s.respond(c, http.StatusOK, chain, err)
}

func (s *Server) insertAfter(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.InsertAfterWrite
	if !s.bind(c, &w) {
		return
	}
	chain, err := s.boundary.InsertAfter(id, w)
	s.respond(c, http.StatusOK, chain, err)
}

func (s *Server) unlinkLine(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	ann, err := s.boundary.UnlinkLine(id)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) setHypoText(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.HypoTextWrite
	if !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.SetHypoText(id, w)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) assignTextField(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var w wire.TextFieldAssign
	if !s.bind(c, &w) {
		return
	}
	ann, err := s.boundary.AssignTextField(id, w)
	s.respond(c, http.StatusOK, ann, err)
}

func (s *Server) listTextFields(c *gin.Context) {
	ms, ok := s.queryInt(c, "manuscript")
	if !ok {
		return
	}
	if ms == 0 {
		s.badRequest(c, "invalid_filter", "manuscript is required")
		return
	}
	page, ok := s.queryInt(c, "page")
	if !ok {
		return
	}
	list, err := s.boundary.TextFields(ms, int(page))
	s.respond(c, http.StatusOK, list, err)
}

func (s *Server) createTextField(c *gin.Context) {
	var w wire.TextFieldWrite
	if !s.bind(c, &w) {
		return
	}
	tf, err := s.boundary.CreateTextField(w)
	s.respond(c, http.StatusCreated, tf, err)
}

func (s *Server) getTextField(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	tf, err := s.boundary.TextField(id)
	s.respond(c, http.StatusOK, tf, err)
}

func (s *Server) getTextFieldLines(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	lines, err := s.boundary.TextFieldLines(id)
	s.respond(c, http.StatusOK, lines, err)
}

