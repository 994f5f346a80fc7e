package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"task-tracker/backend/internal/errs"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
	log         *slog.Logger
}

func NewTaskHandler(taskService services.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &TaskHandler{taskService: taskService, log: log}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var in models.TaskCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, h.log, bindingError(err))
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	filter, err := parseTaskFilter(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	task, err := h.taskService.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask serves both PUT and PATCH. Keys missing from the body keep
// their stored values.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, h.log, bindingError(err))
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errs.Validation("id", "must be an integer")
	}
	return id, nil
}

func parseTaskFilter(c *gin.Context) (models.TaskFilter, error) {
	var filter models.TaskFilter

	if q, ok := c.GetQuery("q"); ok && q != "" {
		filter.Query = &q
	}

	if raw, ok := c.GetQuery("is_completed"); ok {
		completed, err := parseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.IsCompleted = &completed
	}

	if raw, ok := c.GetQuery("min_priority"); ok {
		minPriority, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errs.Validation("min_priority", "must be an integer")
		}
		filter.MinPriority = &minPriority
	}

	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errs.Validation("limit", "must be an integer")
		}
		if limit < 1 {
			return filter, errs.Validation("limit", "must be greater than or equal to 1")
		}
		filter.Limit = limit
	}

	if raw, ok := c.GetQuery("offset"); ok {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errs.Validation("offset", "must be an integer")
		}
		filter.Offset = offset
	}

	return filter.Normalize()
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on", "t", "y":
		return true, nil
	case "false", "0", "no", "off", "f", "n":
		return false, nil
	}
	return false, errs.Validation("is_completed", "must be a boolean")
}
