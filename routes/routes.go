package routes

import (
	"github.com/gorilla/mux"

	"github.com/tsiemasilo/pulse-app-system-sub000/handlers"
	"github.com/tsiemasilo/pulse-app-system-sub000/middleware"
	"github.com/tsiemasilo/pulse-app-system-sub000/websocket"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly  = []string{"GET", "OPTIONS"}
	MethodsPostOnly = []string{"POST", "OPTIONS"}
)

// Route grouping constants
const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/validate", handlers.ValidateToken).Methods(MethodsGetOnly...)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	// ====================
	// ASSET LIFECYCLE
	// ====================
	apiRouter.HandleFunc("/assets/book-in", handlers.BookInAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/book-out", handlers.BookOutAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/mark-found", handlers.MarkAssetFound).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/reset-agent", handlers.ResetAgentRecords).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/state-audit/{userId}", handlers.GetStateAudit).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/unreturned", handlers.GetUnreturnedAssets).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/history/{date}", handlers.GetAssetHistory).Methods(MethodsGetOnly...)

	// ====================
	// DAILY RESET ENGINE
	// ====================
	apiRouter.HandleFunc("/assets/daily-reset", handlers.TriggerDailyReset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/daily-reset/auto", handlers.AutoDailyReset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/daily-reset/status/{date}", handlers.GetDailyResetStatus).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/daily-reset/scheduler/status", handlers.GetSchedulerStatus).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/daily-reset/scheduler/trigger", handlers.TriggerScheduler).Methods(MethodsPostOnly...)

	// ====================
	// INCIDENTS
	// ====================
	apiRouter.HandleFunc("/incidents", handlers.ListIncidents).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/incidents", handlers.CreateIncident).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/incidents/{id}/resolve", handlers.ResolveIncident).Methods(MethodsPostOnly...)

	// ====================
	// USER DIRECTORY
	// ====================
	apiRouter.HandleFunc("/users", handlers.ListUsers).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/user/me", handlers.GetCurrentUser).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/user/change-password", handlers.ChangePassword).Methods(MethodsPostOnly...)

	// ====================
	// NOTIFICATION STREAM
	// ====================
	apiRouter.HandleFunc("/ws", websocket.HandleWebSocket)
}
