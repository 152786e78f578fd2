package interview

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mockmate/internal/enrich"
	"mockmate/internal/sessions"
	"mockmate/internal/shared/server/middleware"
	"mockmate/internal/shared/server/respond"
)

const (
	maxAnswerChars = 20000
	maxResumeChars = 60000
)

// Enricher produces coaching text for the current question.
type Enricher interface {
	Configured() bool
	Elaborate(ctx context.Context, req enrich.Request) (enrich.Guidance, error)
}

type Handler struct {
	manager  *Manager
	enricher Enricher
}

type startRequest struct {
	UserID     string `json:"userId"`
	Role       string `json:"role"`
	Level      string `json:"level"`
	ResumeText string `json:"resumeText"`
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type guidanceRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

type questionResponse struct {
	Question          *Question `json:"question"`
	InterviewComplete bool      `json:"interviewComplete"`
}

type guidanceResponse struct {
	QuestionID string          `json:"questionId"`
	Guidance   enrich.Guidance `json:"guidance"`
}

// NewHandler returns the interview API. enricher may be nil.
func NewHandler(manager *Manager, enricher Enricher) *Handler {
	return &Handler{manager: manager, enricher: enricher}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", h.start)

	g := rg.Group("/interviews/:id", h.bindSession)
	g.GET("", h.state)
	g.GET("/question", h.question)
	g.POST("/answers", h.answer)
	g.POST("/skip", h.skip)
	g.GET("/summary", h.summary)
	g.GET("/stats", h.stats)
	g.POST("/guidance", h.guidance)
}

func (h *Handler) bindSession(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if !sessions.ValidID(id) {
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "Interview not found", nil)
		return
	}
	c.Set("sessionId", id)
	c.Next()
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Role) == "" || strings.TrimSpace(req.Level) == "" {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "role and level are required", nil)
		return
	}
	if len(req.ResumeText) > maxResumeChars {
		req.ResumeText = req.ResumeText[:maxResumeChars]
	}
	if userID := strings.TrimSpace(req.UserID); userID != "" {
		c.Set("userId", userID)
	}

	res, err := h.manager.Start(c.Request.Context(), StartInput{
		UserID:     req.UserID,
		Role:       req.Role,
		Level:      req.Level,
		ResumeText: req.ResumeText,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("sessionId", res.SessionID)
	respond.Created(c, c.FullPath()+"/"+res.SessionID, res)
}

func (h *Handler) state(c *gin.Context) {
	st, err := h.manager.State(c.GetString("sessionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("userId", st.UserID)
	respond.OK(c, st)
}

func (h *Handler) question(c *gin.Context) {
	q, err := h.manager.NextQuestion(c.Request.Context(), c.GetString("sessionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, questionResponse{Question: q, InterviewComplete: q == nil})
}

func (h *Handler) answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.QuestionID) == "" {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "questionId is required", nil)
		return
	}
	if len(req.Answer) > maxAnswerChars {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "answer is too long", gin.H{"maxChars": maxAnswerChars})
		return
	}

	res, err := h.manager.SubmitAnswer(c.Request.Context(), c.GetString("sessionId"), req.QuestionID, req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Success {
		c.AbortWithStatusJSON(http.StatusConflict, res)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) skip(c *gin.Context) {
	res, err := h.manager.Skip(c.Request.Context(), c.GetString("sessionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.manager.Summary(c.Request.Context(), c.GetString("sessionId"), middleware.RequestIDFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, sum)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.manager.Stats(c.Request.Context(), c.GetString("sessionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, st)
}

func (h *Handler) guidance(c *gin.Context) {
	if h.enricher == nil || !h.enricher.Configured() {
		respond.Error(c, http.StatusServiceUnavailable, "LLM_NOT_CONFIGURED", "Guidance is not available", nil)
		return
	}
	var req guidanceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
			return
		}
	}

	sessionID := c.GetString("sessionId")
	st, err := h.manager.State(sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	q, err := h.manager.NextQuestion(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if q == nil {
		respond.Error(c, http.StatusGone, "INTERVIEW_COMPLETE", "Interview has no pending question", nil)
		return
	}

	g, err := h.enricher.Elaborate(c.Request.Context(), enrich.Request{
		Question:       q.Text,
		Stage:          q.Stage,
		Role:           st.Role,
		Level:          st.Level,
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, guidanceResponse{QuestionID: q.ID, Guidance: g})
}

// fail maps engine, store and enrichment errors onto the error envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	var pe *sessions.PersistenceError
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "Interview not found", nil)
	case errors.Is(err, sessions.ErrInvalidID):
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid session id", nil)
	case errors.Is(err, sessions.ErrAlreadyExists), errors.Is(err, ErrAlreadyStarted):
		respond.Error(c, http.StatusConflict, "CONFLICT", "Interview already exists", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrSessionCompleted), errors.Is(err, sessions.ErrCompleted):
		respond.Error(c, http.StatusGone, "INTERVIEW_COMPLETE", "Interview already completed", nil)
	case errors.Is(err, ErrNotStarted):
		respond.Error(c, http.StatusConflict, "NOT_STARTED", "Interview not started", nil)
	case errors.Is(err, ErrStageEmpty):
		respond.Error(c, http.StatusInternalServerError, "STAGE_EMPTY", "No questions available for the current stage", nil)
	case errors.Is(err, enrich.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "LLM_NOT_CONFIGURED", "Guidance is not available", nil)
	case errors.Is(err, enrich.ErrInvalidResponse):
		respond.Error(c, http.StatusBadGateway, "LLM_INVALID_RESPONSE", "Guidance could not be generated", nil)
	case errors.As(err, &pe):
		respond.Logger(c).Error("session store failure", zap.String("op", pe.Op), zap.Error(pe.Err))
		respond.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Session store unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", nil)
	default:
		respond.Logger(c).Error("interview request failed", zap.Error(err))
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
