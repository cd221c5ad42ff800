package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/middleware"
	"github.com/prashnahq/pariksha-backend/internal/response"
	"github.com/prashnahq/pariksha-backend/internal/service"
)

// PortalHandler serves the student portal REST endpoints: the test
// listing, the paper payload and a point-in-time session state. Live
// interaction happens on the WebSocket stream.
type PortalHandler struct {
	testService *service.TestService
	sessions    *service.SessionManager
	log         zerolog.Logger
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(testService *service.TestService, sessions *service.SessionManager, log zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		testService: testService,
		sessions:    sessions,
		log:         log.With().Str("component", "portal_handler").Logger(),
	}
}

// ListTests godoc
// GET /api/v1/student/tests
func (h *PortalHandler) ListTests(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	tests, err := h.testService.ListAvailable(c.Request.Context(), claims.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("List tests failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// GetPaper godoc
// GET /api/v1/student/tests/:test_id/paper
// Returns the full question payload for rendering. Question text and
// options pass through exactly as authored.
func (h *PortalHandler) GetPaper(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	def, err := h.testService.GetDefinition(c.Request.Context(), testID)
	if err != nil {
		if errors.Is(err, service.ErrTestNotAvailable) {
			response.Fail(c, http.StatusNotFound, response.ErrTestNotAvailable)
			return
		}
		h.log.Error().Err(err).Str("test_id", testID.String()).Msg("Get paper failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": def})
}

// GetSessionState godoc
// GET /api/v1/student/tests/:test_id/state
// Returns the live view of the student's running session. 404 when no
// session is running — the client then connects the stream to start or
// resume one.
func (h *PortalHandler) GetSessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, ok := h.sessions.Peek(testID, claims.UserID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": view})
}
