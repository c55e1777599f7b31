package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/http/response"
	"github.com/yungbote/tally-backend/internal/platform/ctxutil"
	"github.com/yungbote/tally-backend/internal/services"
)

type AdminHandler struct {
	counter services.CounterService
}

func NewAdminHandler(counter services.CounterService) *AdminHandler {
	return &AdminHandler{counter: counter}
}

type seedRequest struct {
	Number          int64   `json:"number" binding:"required"`
	ContributorID   string  `json:"contributor_id"`
	ContributorName *string `json:"contributor_name"`
}

func (r seedRequest) toService(c *gin.Context) services.SeedRequest {
	return services.SeedRequest{
		Number:          r.Number,
		ContributorID:   r.ContributorID,
		ContributorName: r.ContributorName,
		Actor:           ctxutil.Actor(c.Request.Context()),
	}
}

// POST /api/admin/bootstrap
func (h *AdminHandler) Bootstrap(c *gin.Context) {
	var req seedRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	rec, err := h.counter.Bootstrap(c.Request.Context(), req.toService(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec})
}

// POST /api/admin/force
func (h *AdminHandler) ForceSet(c *gin.Context) {
	var req seedRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	res, err := h.counter.ForceSet(c.Request.Context(), req.toService(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"record":  res.Record,
		"removed": res.Removed,
		"rebuilt": res.Rebuilt,
	})
}

// DELETE /api/admin/ledger/:number
func (h *AdminHandler) DeleteBySeq(c *gin.Context) {
	number, err := paramInt64(c, "number")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	rec, err := h.counter.DeleteBySeq(c.Request.Context(), number, ctxutil.Actor(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}

// DELETE /api/ledger/ref/:ref
func (h *AdminHandler) DeleteByRef(c *gin.Context) {
	rec, err := h.counter.DeleteByRef(c.Request.Context(), c.Param("ref"), ctxutil.Actor(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}

type setTotalRequest struct {
	Total *int64 `json:"total" binding:"required"`
}

// PUT /api/admin/contributors/:identifier/total
func (h *AdminHandler) SetContributorTotal(c *gin.Context) {
	var req setTotalRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out, err := h.counter.SetContributorTotal(c.Request.Context(), c.Param("identifier"), *req.Total, ctxutil.Actor(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contributor": out})
}

// POST /api/admin/recalculate
func (h *AdminHandler) Recalculate(c *gin.Context) {
	res, err := h.counter.RecalculateAll(c.Request.Context(), ctxutil.Actor(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rebuilt": res.Rebuilt, "pruned": res.Pruned})
}
