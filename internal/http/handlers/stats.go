package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/domain/counting"
	"github.com/yungbote/tally-backend/internal/http/response"
	"github.com/yungbote/tally-backend/internal/services"
)

type StatsHandler struct {
	stats services.StatsService
}

func NewStatsHandler(stats services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GET /api/contributors/top?n=
func (h *StatsHandler) TopContributors(c *gin.Context) {
	n, err := queryInt(c, "n")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	top, err := h.stats.TopContributors(c.Request.Context(), n)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contributors": top})
}

// GET /api/contributors/:id
func (h *StatsHandler) GetContributor(c *gin.Context) {
	out, err := h.stats.ContributorStats(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/tiers
func (h *StatsHandler) Tiers(c *gin.Context) {
	response.RespondOK(c, gin.H{"tiers": counting.Tiers})
}

// GET /api/contributors/:id/rank
func (h *StatsHandler) GetRank(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	rank, err := h.stats.RankOf(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contributor_id": id, "rank": rank})
}

// GET /api/participants
func (h *StatsHandler) Participants(c *gin.Context) {
	n, err := h.stats.Participants(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"participants": n})
}

// GET /api/stats/window?start=&end=&limit=
func (h *StatsHandler) Window(c *gin.Context) {
	start, err := queryTime(c, "start")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	end, err := queryTime(c, "end")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out, err := h.stats.StatsForWindow(c.Request.Context(), start, end, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/ledger/recent?n=
func (h *StatsHandler) Recent(c *gin.Context) {
	n, err := queryInt(c, "n")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	records, err := h.stats.Recent(c.Request.Context(), n)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": records})
}

// GET /api/admin/audit?n=
func (h *StatsHandler) AuditLog(c *gin.Context) {
	n, err := queryInt(c, "n")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	entries, err := h.stats.AuditLog(c.Request.Context(), n)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}
