package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/session"
	"github.com/kbukum/minutes/util"
	"github.com/kbukum/minutes/validation"
	"github.com/kbukum/minutes/voice"
)

// Sessions is the recording surface the API drives; *session.Controller
// implements it.
type Sessions interface {
	Start(ctx context.Context, source voice.Source, routingToken string) (*session.Session, error)
	Stop(ctx context.Context)
	Current() (session.Session, bool)
	Status() (session.Status, bool)
}

var _ Sessions = (*session.Controller)(nil)

type startRequest struct {
	RoutingToken string `json:"routing_token" validate:"required,max=128"`
}

type stopResponse struct {
	Session session.Session `json:"session"`
	EndedAt time.Time       `json:"ended_at"`
}

// SessionHandler serves /api/v1/sessions.
type SessionHandler struct {
	sessions Sessions
	log      *logger.Logger
	now      func() time.Time
}

// NewSessionHandler creates a handler over sessions.
func NewSessionHandler(sessions Sessions, log *logger.Logger) *SessionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SessionHandler{sessions: sessions, log: log.WithComponent("api"), now: time.Now}
}

// Register mounts the session routes under r.
func (h *SessionHandler) Register(r gin.IRouter) {
	g := r.Group("/api/v1/sessions")
	g.POST("", h.Start)
	g.GET("/current", h.Status)
	g.DELETE("/current", h.Stop)
}

// Start begins recording the room named by routing_token with the
// configured voice source.
func (h *SessionHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	req.RoutingToken = util.SanitizeString(req.RoutingToken)
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return
	}

	s, err := h.sessions.Start(c.Request.Context(), nil, req.RoutingToken)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, s)
}

// Status reports elapsed time, active captures and pending jobs.
func (h *SessionHandler) Status(c *gin.Context) {
	st, ok := h.sessions.Status()
	if !ok {
		RespondWithError(c, apperrors.NoActiveSession())
		return
	}
	RespondOK(c, st)
}

// Stop ends the current session and answers once the drain finished:
// every capture closed and every transcription settled.
func (h *SessionHandler) Stop(c *gin.Context) {
	s, ok := h.sessions.Current()
	if !ok {
		RespondWithError(c, apperrors.NoActiveSession())
		return
	}
	if !s.Active {
		RespondWithError(c, apperrors.Conflict("The recording session is already stopping.").WithDetail("session_id", s.ID))
		return
	}

	start := h.now()
	h.sessions.Stop(c.Request.Context())
	h.log.WithContext(logger.ContextWithSessionID(c.Request.Context(), s.ID)).
		Info("session stopped via API", logger.DurationFields("drain", h.now().Sub(start)))

	s.Active = false
	RespondOK(c, stopResponse{Session: s, EndedAt: h.now().UTC()})
}
