package handler

import (
	"github.com/gin-gonic/gin"

	"carepulse/internal/middleware"
	"carepulse/internal/session"
)

// Handlers bundles every endpoint handler for route registration
type Handlers struct {
	Auth          *AuthHandler
	Medications   *MedicationHandler
	Sources       *SourceHandler
	Dashboard     *DashboardHandler
	Chat          *ChatHandler
	Notifications *NotificationHandler
	Reports       *ReportHandler
}

// RegisterRoutes wires the API onto the router. Auth endpoints are
// public; everything else requires the session's bearer token.
func RegisterRoutes(r *gin.Engine, h Handlers, sessions *session.Store) {
	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/google", h.Auth.Google)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/session", h.Auth.Session)
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(sessions))
	{
		protected.GET("/dashboard/summary", h.Dashboard.Summary)
		protected.GET("/health/series", h.Dashboard.Series)
		protected.GET("/health/weekly-summary", h.Dashboard.WeeklySummary)

		protected.GET("/medications", h.Medications.List)
		protected.POST("/medications", h.Medications.Add)
		protected.PATCH("/medications/:id", h.Medications.Edit)
		protected.DELETE("/medications/:id", h.Medications.Delete)
		protected.POST("/medications/:id/toggle", h.Medications.ToggleTaken)
		protected.POST("/medications/:id/alarms", h.Medications.AddAlarm)
		protected.PATCH("/medications/:id/alarms/:alarmID", h.Medications.SetAlarmTime)
		protected.POST("/medications/:id/alarms/:alarmID/toggle", h.Medications.ToggleAlarm)
		protected.DELETE("/medications/:id/alarms/:alarmID", h.Medications.RemoveAlarm)

		protected.GET("/sources", h.Sources.List)
		protected.POST("/sources/:id/connect", h.Sources.Connect)
		protected.POST("/sources/:id/select", h.Sources.Select)

		protected.GET("/chat/greeting", h.Chat.MedicalGreeting)
		protected.POST("/chat", h.Chat.MedicalChat)
		protected.POST("/checkins", h.Chat.SubmitCheckIn)
		protected.POST("/checkins/chat", h.Chat.ContinueCheckIn)
		protected.GET("/checkins", h.Chat.CheckInHistory)

		protected.GET("/notifications", h.Notifications.Drain)
		protected.GET("/notifications/permission", h.Notifications.Permission)
		protected.POST("/notifications/permission", h.Notifications.RequestPermission)

		protected.POST("/reports/generate", h.Reports.Generate)
		protected.GET("/reports/:id", h.Reports.Download)
	}
}
