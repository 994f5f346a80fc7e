package handlers

import (
	"log/slog"
	"net/http"

	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService services.StatsService
	log          *slog.Logger
}

func NewStatsHandler(statsService services.StatsService, log *slog.Logger) *StatsHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &StatsHandler{statsService: statsService, log: log}
}

func (h *StatsHandler) Summary(c *gin.Context) {
	summary, err := h.statsService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
