package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/middleware"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/task"
)

// TaskHandler handles HTTP requests for task operations
type TaskHandler struct {
	service task.Service
}

// NewTaskHandler creates a new TaskHandler instance
func NewTaskHandler(service task.Service) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var input task.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ProjectID = projectID

	created, err := h.service.CreateTask(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	filter := task.TaskFilter{Search: c.Query("search"), Tag: c.Query("tag")}
	if s := c.Query("columnId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column ID"})
			return
		}
		filter.ColumnID = &id
	}
	if s := c.Query("assigneeId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee ID"})
			return
		}
		filter.AssigneeID = &id
	}
	if s := c.Query("priority"); s != "" {
		priority := task.TaskPriority(s)
		filter.Priority = &priority
	}
	if s := c.Query("dueBefore"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueBefore timestamp"})
			return
		}
		filter.DueBefore = &ts
	}
	if s := c.Query("archived"); s != "" {
		archived := s == "true"
		filter.Archived = &archived
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	tasks, err := h.service.ListTasks(c.Request.Context(), actorID, projectID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	t, err := h.service.GetTask(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	var input task.UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateTask(c.Request.Context(), actorID, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *TaskHandler) MoveTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	var input task.MoveTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	moved, err := h.service.MoveTask(c.Request.Context(), actorID, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": moved})
}

func (h *TaskHandler) DuplicateTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	copied, err := h.service.DuplicateTask(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": copied})
}

func (h *TaskHandler) ArchiveTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	archived, err := h.service.ArchiveTask(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": archived})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) GetHistory(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	entries, total, err := h.service.GetHistory(c.Request.Context(), actorID, id, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "total": total})
}
