package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
	"github.com/tsiemasilo/pulse-app-system-sub000/utils"
)

type DailyResetRequest struct {
	Date string `json:"date"`
}

// TriggerDailyReset runs the reset engine for an explicit date. Restricted to
// team leaders and above; idempotent per date.
func TriggerDailyReset(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}
	if !canManageResets(r) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to run daily reset")
		return
	}

	var req DailyResetRequest
	if err := utils.ParseJSON(r, &req); err != nil || req.Date == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "date is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := resetEngine.Run(ctx, actorID, req.Date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// AutoDailyReset runs the reset engine for the current date.
func AutoDailyReset(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}
	if !canManageResets(r) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to run daily reset")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := resetEngine.Run(ctx, actorID, time.Now().Format("2006-01-02"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// GetDailyResetStatus reports whether a date has been processed and the
// breakdown of its live states.
func GetDailyResetStatus(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := resetEngine.Status(ctx, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, status)
}

// GetSchedulerStatus exposes the background scheduler state to operators.
func GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, scheduler.Status())
}

// TriggerScheduler runs the scheduler's daily reset immediately.
func TriggerScheduler(w http.ResponseWriter, r *http.Request) {
	if !canManageResets(r) {
		utils.RespondWithError(w, http.StatusForbidden, "insufficient permissions to trigger scheduler")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := scheduler.TriggerNow(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func canManageResets(r *http.Request) bool {
	role, _ := r.Context().Value("userRole").(string)
	switch role {
	case models.RoleTeamLeader, models.RoleManager, models.RoleAdmin:
		return true
	}
	return false
}
