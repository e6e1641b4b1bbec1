package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/middleware"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/project"
)

// ProjectHandler handles HTTP requests for project operations
type ProjectHandler struct {
	service project.Service
}

// NewProjectHandler creates a new ProjectHandler instance
func NewProjectHandler(service project.Service) *ProjectHandler {
	return &ProjectHandler{service: service}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)

	var input project.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.OwnerID = actorID

	created, err := h.service.CreateProject(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	p, err := h.service.GetProject(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)

	filter := project.ProjectFilter{MemberID: &actorID}
	if s := c.Query("status"); s != "" {
		status := project.ProjectStatus(s)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	projects, total, err := h.service.ListProjects(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects, "total": total})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var input project.UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateProject(c.Request.Context(), actorID, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type memberRequest struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   policy.Role `json:"role"`
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.service.AddMember(c.Request.Context(), actorID, projectID, req.UserID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": member})
}

func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	var req struct {
		Role policy.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.service.UpdateMemberRole(c.Request.Context(), actorID, projectID, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": member})
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	actorID, _ := middleware.GetActorID(c)
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project ID"})
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), actorID, projectID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
