package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/middleware"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
)

// ColumnHandler handles HTTP requests for column operations
type ColumnHandler struct {
	service column.Service
}

// NewColumnHandler creates a new ColumnHandler instance
func NewColumnHandler(service column.Service) *ColumnHandler {
	return &ColumnHandler{service: service}
}

func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var input column.CreateColumnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ProjectID = projectID

	created, err := h.service.CreateColumn(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *ColumnHandler) ListColumns(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	columns, err := h.service.ListColumns(c.Request.Context(), actorID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": columns})
}

func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("columnId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column ID"})
		return
	}

	var input column.UpdateColumnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateColumn(c.Request.Context(), actorID, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *ColumnHandler) MoveColumn(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("columnId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column ID"})
		return
	}
	target, err := strconv.Atoi(c.Query("position"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}

	moved, err := h.service.MoveColumn(c.Request.Context(), actorID, id, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": moved})
}

func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("columnId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column ID"})
		return
	}

	if err := h.service.DeleteColumn(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
