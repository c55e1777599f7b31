package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/http/response"
	"github.com/yungbote/tally-backend/internal/platform/logger"
	"github.com/yungbote/tally-backend/internal/services"
)

type CountHandler struct {
	log     *logger.Logger
	counter services.CounterService
	stats   services.StatsService
}

func NewCountHandler(log *logger.Logger, counter services.CounterService, stats services.StatsService) *CountHandler {
	return &CountHandler{log: log.With("handler", "CountHandler"), counter: counter, stats: stats}
}

// GET /api/count
func (h *CountHandler) GetCount(c *gin.Context) {
	n, err := h.counter.CurrentCount(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"current_count": n})
}

// GET /api/progress
func (h *CountHandler) GetProgress(c *gin.Context) {
	p, err := h.stats.Progress(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, p)
}

type attemptRequest struct {
	Number          *int64  `json:"number" binding:"required"`
	ContributorID   string  `json:"contributor_id" binding:"required"`
	ContributorName *string `json:"contributor_name"`
	ExternalRef     *string `json:"external_ref"`
	HasEvidence     bool    `json:"has_evidence"`
}

// POST /api/attempts
//
// A rejected or lost attempt is still a 200: the verdict tells the caller what to do next.
func (h *CountHandler) PostAttempt(c *gin.Context) {
	var req attemptRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	res, err := h.counter.Attempt(c.Request.Context(), services.AttemptInput{
		Number:          *req.Number,
		ContributorID:   req.ContributorID,
		ContributorName: req.ContributorName,
		ExternalRef:     req.ExternalRef,
		HasEvidence:     req.HasEvidence,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
