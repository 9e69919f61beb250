package routes

import (
	"github.com/arnold/jcihub-api/internal/handlers"
	"github.com/arnold/jcihub-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App, h *handlers.Handlers) {
	app.Get("/health", h.Health)
	app.Get("/metrics", handlers.Metrics())

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	protected := api.Group("/", middleware.Protected(h.JWTSecret))

	protected.Get("/me", h.GetMe)
	protected.Put("/me", h.UpdateMe)

	members := protected.Group("/members")
	members.Get("/", h.ListMembers)
	members.Get("/:id", h.GetMember)
	members.Put("/:id/role", h.UpdateMemberRole)
	members.Put("/:id/validation", h.UpdateMemberValidation)
	members.Put("/:id/cotisation", h.UpdateMemberCotisation)
	members.Put("/:id/advisor", h.UpdateMemberAdvisor)
	members.Delete("/:id", h.DeleteMember)

	// Points ledger
	members.Post("/:id/points", h.GrantPoints)
	members.Get("/:id/points/history", h.GetPointsHistory)
	members.Get("/:id/points/summary", h.GetPointsSummary)
	members.Post("/:id/points/reconcile", h.ReconcilePoints)

	// Objective assignments
	members.Get("/:id/objectives", h.ListMemberObjectives)
	members.Post("/:id/objectives/:objectiveId", h.AssignObjective)
	members.Delete("/:id/objectives/:objectiveId", h.UnassignObjective)
	members.Put("/:id/objectives/:objectiveId/progress", h.SetObjectiveProgress)
	members.Post("/:id/objectives/:objectiveId/increment", h.IncrementObjective)
	members.Post("/:id/objectives/:objectiveId/decrement", h.DecrementObjective)

	protected.Get("/leaderboard", h.GetLeaderboard)

	objectives := protected.Group("/objectives")
	objectives.Get("/", h.ListObjectives)
	objectives.Get("/classifications", h.GetClassifications)
	objectives.Post("/", h.CreateObjective)
	objectives.Delete("/:id", h.DeleteObjective)

	activities := protected.Group("/activities")
	activities.Get("/", h.ListActivities)
	activities.Post("/", h.CreateActivity)
	activities.Get("/:id/participants", h.ListParticipants)
	activities.Post("/:id/participants", h.RecordParticipation)

	candidates := protected.Group("/candidates")
	candidates.Get("/", h.ListCandidates)
	candidates.Post("/", h.CreateCandidate)
	candidates.Put("/:id/status", h.UpdateCandidateStatus)
	candidates.Delete("/:id", h.DeleteCandidate)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", h.GetNotifications)
	notifications.Put("/:id/read", h.MarkNotificationRead)
	notifications.Post("/read-all", h.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", h.RegisterDeviceToken)

	// WebSocket for live leaderboard updates
	app.Use("/ws", h.WebSocketUpgrade())
	app.Get("/ws/leaderboard", websocket.New(h.HandleLeaderboardSocket))
}
