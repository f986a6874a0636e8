// Package httpapi serves the annotation core over HTTP with gin. Handlers
// decode requests into wire shapes, call the Boundary, and map sentinel
// errors to status codes. The package holds no invariants of its own.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mesh-intelligence/khatt/internal/wire"
)

// ServiceName names the service in traces.
const ServiceName = "khatt"

// AnnotatorHeader carries the name of the annotator making a write.
const AnnotatorHeader = "X-Annotator"

// Options configures a Server.
type Options struct {
	// ScanDir is the root that manuscript scan paths are resolved under.
	// Scan retrieval is disabled when empty.
	ScanDir string
	Logger  *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	boundary *wire.Boundary
	scanDir  string
	logger   *slog.Logger
	metrics  *metrics
}

// NewServer returns a Server over boundary.
func NewServer(boundary *wire.Boundary, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		boundary: boundary,
		scanDir:  opts.ScanDir,
		logger:   logger,
		metrics:  newMetrics(),
	}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	s.RegisterRoutes(router.Group("/api"))
	return router
}

// RegisterRoutes registers the /api endpoints on rg.
//
//	GET  /books, POST /books, GET /books/:id
//	GET  /manuscripts, POST /manuscripts
//	GET  /manuscripts/:id, PATCH /manuscripts/:id
//	GET  /manuscripts/:id/pages/:page, GET /manuscripts/:id/scan
//	POST /annotations, GET /annotations/:id, PATCH /annotations/:id
//	POST /annotations/:id/{chapter,aside,line,complete,align}
//	POST /lines, GET /lines/:id, GET /lines/:id/chain
//	POST /lines/:id/insert-after, POST /lines/:id/unlink
//	PUT  /lines/:id/hypo_text, PUT /lines/:id/text_field
//	GET  /textfields, POST /textfields, GET /textfields/:id, GET /textfields/:id/lines
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books", s.listBooks)
	rg.POST("/books", s.createBook)
	rg.GET("/books/:id", s.getBook)

	rg.GET("/manuscripts", s.listManuscripts)
	rg.POST("/manuscripts", s.createManuscript)
	rg.GET("/manuscripts/:id", s.getManuscript)
	rg.PATCH("/manuscripts/:id", s.updateManuscript)
	rg.GET("/manuscripts/:id/pages/:page", s.getPage)
	rg.GET("/manuscripts/:id/scan", s.getScan)

	rg.POST("/annotations", s.createAnnotation)
	rg.GET("/annotations/:id", s.getAnnotation)
	rg.PATCH("/annotations/:id", s.updateAnnotation)
	rg.POST("/annotations/:id/chapter", s.specializeChapter)
	rg.POST("/annotations/:id/aside", s.specializeAside)
	rg.POST("/annotations/:id/line", s.specializeLine)
	rg.POST("/annotations/:id/complete", s.markComplete)
	rg.POST("/annotations/:id/align", s.alignChapter)

	rg.POST("/lines", s.createLine)
	rg.GET("/lines/:id", s.getLine)
	rg.GET("/lines/:id/chain", s.getChain)
	rg.POST("/lines/:id/insert-after", s.insertAfter)
	rg.POST("/lines/:id/unlink", s.unlinkLine)
	rg.PUT("/lines/:id/hypo_text", s.setHypoText)
	rg.PUT("/lines/:id/text_field", s.assignTextField)

	rg.GET("/textfields", s.listTextFields)
	rg.POST("/textfields", s.createTextField)
	rg.GET("/textfields/:id", s.getTextField)
	rg.GET("/textfields/:id/lines", s.getTextFieldLines)
}
