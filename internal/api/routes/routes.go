package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/handlers"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/api/middleware"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/cache"
)

// BoardRoutes wires the board API under /api.
type BoardRoutes struct {
	projects *handlers.ProjectHandler
	columns  *handlers.ColumnHandler
	tasks    *handlers.TaskHandler
	comments *handlers.CommentHandler
	presence *handlers.PresenceHandler
	redis    *cache.RedisClient
}

// NewBoardRoutes creates a new BoardRoutes instance
func NewBoardRoutes(projects *handlers.ProjectHandler, columns *handlers.ColumnHandler, tasks *handlers.TaskHandler, comments *handlers.CommentHandler, presence *handlers.PresenceHandler, redis *cache.RedisClient) *BoardRoutes {
	return &BoardRoutes{projects: projects, columns: columns, tasks: tasks, comments: comments, presence: presence, redis: redis}
}

// RegisterRoutes registers all board routes
func (br *BoardRoutes) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(middleware.RequireActor())
	api.Use(middleware.TrackPresence(br.redis))

	api.GET("/presence/:userId", br.presence.GetPresence)

	projects := api.Group("/projects")
	projects.POST("", br.projects.CreateProject)
	projects.GET("", br.projects.ListProjects)
	projects.GET("/:id", br.projects.GetProject)
	projects.PATCH("/:id", br.projects.UpdateProject)
	projects.DELETE("/:id", br.projects.DeleteProject)

	projects.POST("/:id/members", br.projects.AddMember)
	projects.PATCH("/:id/members/:userId", br.projects.UpdateMemberRole)
	projects.DELETE("/:id/members/:userId", br.projects.RemoveMember)

	projects.POST("/:id/columns", br.columns.CreateColumn)
	projects.GET("/:id/columns", br.columns.ListColumns)

	projects.POST("/:id/tasks", br.tasks.CreateTask)
	projects.GET("/:id/tasks", br.tasks.ListTasks)

	columns := api.Group("/columns")
	columns.PATCH("/:columnId", br.columns.UpdateColumn)
	columns.POST("/:columnId/move", br.columns.MoveColumn)
	columns.DELETE("/:columnId", br.columns.DeleteColumn)

	tasks := api.Group("/tasks")
	tasks.GET("/:taskId", br.tasks.GetTask)
	tasks.PATCH("/:taskId", br.tasks.UpdateTask)
	tasks.POST("/:taskId/move", br.tasks.MoveTask)
	tasks.POST("/:taskId/duplicate", br.tasks.DuplicateTask)
	tasks.POST("/:taskId/archive", br.tasks.ArchiveTask)
	tasks.DELETE("/:taskId", br.tasks.DeleteTask)
	tasks.GET("/:taskId/history", br.tasks.GetHistory)

	tasks.POST("/:taskId/comments", br.comments.CreateComment)
	tasks.GET("/:taskId/comments", br.comments.ListComments)

	comments := api.Group("/comments")
	comments.PATCH("/:commentId", br.comments.UpdateComment)
	comments.DELETE("/:commentId", br.comments.DeleteComment)
}
