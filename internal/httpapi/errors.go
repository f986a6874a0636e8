package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order; the first sentinel matched by
// errors.Is decides the response.
var errorMappings = []errorMapping{
	{types.ErrIntegrityFault, http.StatusInternalServerError, "integrity_fault"},
	{types.ErrNotFound, http.StatusNotFound, "not_found"},
	{types.ErrTableNotFound, http.StatusNotFound, "not_found"},
	{types.ErrAlreadySpecialized, http.StatusConflict, "already_specialized"},
	{types.ErrCycleDetected, http.StatusConflict, "cycle_detected"},
	{types.ErrNotSpecialized, http.StatusConflict, "not_specialized"},
	{types.ErrAnnotationComplete, http.StatusConflict, "annotation_complete"},
	{types.ErrDuplicateIdentity, http.StatusConflict, "duplicate_identity"},
	{types.ErrReferenced, http.StatusConflict, "referenced"},
	{types.ErrInvalidSpecialization, http.StatusUnprocessableEntity, "invalid_specialization"},
	{types.ErrChainScope, http.StatusUnprocessableEntity, "chain_scope"},
	{types.ErrInvalidPage, http.StatusBadRequest, "invalid_page"},
	{types.ErrInvalidDirection, http.StatusBadRequest, "invalid_direction"},
	{types.ErrInvalidName, http.StatusBadRequest, "invalid_name"},
	{types.ErrInvalidID, http.StatusBadRequest, "invalid_id"},
	{types.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
	{types.ErrInvalidData, http.StatusBadRequest, "invalid_data"},
	{types.ErrStoreDetached, http.StatusServiceUnavailable, "unavailable"},
	{types.ErrStoreBusy, http.StatusServiceUnavailable, "busy"},
}

// statusFor maps an error to its HTTP status and code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// fail writes the error response and aborts the request. Server-side
// failures are logged with the request id.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	s.metrics.errors.WithLabelValues(code).Inc()
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.log(c).Error("request failed", "code", code, "error", err)
		if code == "internal" {
			msg = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

// badRequest reports a malformed request that never reached the core.
func (s *Server) badRequest(c *gin.Context, code, msg string) {
	s.metrics.errors.WithLabelValues(code).Inc()
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: code})
}
