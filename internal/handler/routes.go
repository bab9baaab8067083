package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/middleware"
	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth       *AuthHandler
	Event      *EventHandler
	Document   *DocumentHandler
	Evaluator  *EvaluatorHandler
	Submission *SubmissionHandler
	Review     *ReviewHandler
	Public     *PublicHandler
	Webhook    *WebhookHandler
}

// RegisterRoutes mounts every endpoint under the API prefix. Organizer and
// evaluator surfaces are split by role; the code-gated submission page, the
// invitation links and the provider webhook stay unauthenticated.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authSvc *service.AuthService) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), h.Auth.Logout)
		auth.GET("/me", middleware.JWT(authSvc), h.Auth.Me)
	}

	// Public surfaces: gated by access or invitation codes, not sessions.
	api.GET("/submit/:code", h.Public.Landing)
	api.POST("/submit/:code", h.Public.Submit)
	api.GET("/invitations/:code/accept", h.Public.AcceptInvitation)
	api.GET("/invitations/:code/decline", h.Public.DeclineInvitation)
	api.POST("/webhooks/orders", h.Webhook.Orders)

	organizer := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleOrganizer))
	{
		organizer.GET("/events/available", h.Event.ListAvailable)
		organizer.POST("/events", h.Event.Register)
		organizer.GET("/events", h.Event.ListMine)
		organizer.GET("/events/:eventID", h.Event.Get)
		organizer.PUT("/events/:eventID/submission-window", h.Event.UpdateSubmissionWindow)
		organizer.PUT("/events/:eventID/evaluation-window", h.Event.UpdateEvaluationWindow)

		organizer.GET("/file-types", h.Document.ListFileTypes)
		organizer.POST("/file-types", h.Document.CreateFileType)
		organizer.GET("/events/:eventID/docs", h.Document.ListDocs)
		organizer.POST("/events/:eventID/docs/files", h.Document.CreateFileDoc)
		organizer.PUT("/events/:eventID/docs/files/:docID", h.Document.UpdateFileDoc)
		organizer.DELETE("/events/:eventID/docs/files/:docID", h.Document.DeleteFileDoc)
		organizer.POST("/events/:eventID/docs/texts", h.Document.CreateTextDoc)
		organizer.PUT("/events/:eventID/docs/texts/:docID", h.Document.UpdateTextDoc)
		organizer.DELETE("/events/:eventID/docs/texts/:docID", h.Document.DeleteTextDoc)

		organizer.POST("/events/:eventID/evaluators", h.Evaluator.Invite)
		organizer.GET("/events/:eventID/evaluators", h.Evaluator.List)
		organizer.DELETE("/events/:eventID/evaluators/:evaluatorID", h.Evaluator.Remove)

		organizer.GET("/events/:eventID/submissions/export.csv", h.Submission.ExportCSV)
		organizer.GET("/events/:eventID/submissions/export.pdf", h.Submission.ExportPDF)

		organizer.GET("/submissions/:submissionID/reviews", h.Review.List)
		organizer.PUT("/submissions/:submissionID/result", h.Review.SetResult)
		organizer.GET("/submissions/:submissionID/result", h.Review.GetResult)
	}

	shared := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleOrganizer, models.RoleEvaluator))
	{
		shared.GET("/events/:eventID/submissions", h.Submission.List)
		shared.GET("/submissions/:submissionID/file", h.Submission.GetFile)
	}

	evaluator := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleEvaluator))
	{
		evaluator.GET("/evaluators/me/events", h.Evaluator.MyEvents)
		evaluator.POST("/submissions/:submissionID/reviews", h.Review.Create)
	}
}
