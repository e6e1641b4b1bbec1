package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/middleware"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/comment"
)

// CommentHandler handles HTTP requests for comment operations
type CommentHandler struct {
	service comment.Service
}

// NewCommentHandler creates a new CommentHandler instance
func NewCommentHandler(service comment.Service) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	var input comment.CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.TaskID = taskID

	created, err := h.service.CreateComment(c.Request.Context(), actorID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), actorID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comments})
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment ID"})
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateComment(c.Request.Context(), actorID, id, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment ID"})
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
