package questions

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mockmate/internal/shared/server/respond"
	"mockmate/internal/stages"
)

const (
	defaultUsageLimit = 20
	maxUsageLimit     = 200
)

type Handler struct {
	repo *Repository
	plan *stages.Sequencer
}

type usageEntry struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Stage      string `json:"stage"`
	Role       string `json:"role"`
	UsageCount int    `json:"usageCount"`
}

type usageResponse struct {
	Questions []usageEntry `json:"questions"`
	Limit     int          `json:"limit"`
}

func NewHandler(repo *Repository, plan *stages.Sequencer) *Handler {
	return &Handler{repo: repo, plan: plan}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/stats", h.catalogStats)
	rg.GET("/usage/questions", h.mostUsed)
}

func (h *Handler) catalogStats(c *gin.Context) {
	respond.OK(c, ComputeStats(h.repo.LoadAll(), h.plan))
}

func (h *Handler) mostUsed(c *gin.Context) {
	limit := defaultUsageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
			return
		}
		if n > maxUsageLimit {
			n = maxUsageLimit
		}
		limit = n
	}

	records := h.repo.MostUsed(limit)
	out := make([]usageEntry, 0, len(records))
	for _, r := range records {
		out = append(out, usageEntry{ID: r.ID, Text: r.Text, Stage: r.Stage, Role: r.Role, UsageCount: r.UsageCount})
	}
	respond.OK(c, usageResponse{Questions: out, Limit: limit})
}
