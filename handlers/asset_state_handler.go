package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/assets"
	"github.com/tsiemasilo/pulse-app-system-sub000/models"
	"github.com/tsiemasilo/pulse-app-system-sub000/utils"
)

// respondServiceError maps the lifecycle engine's error taxonomy to HTTP.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *assets.ValidationError
	var authErr *assets.AuthorizationError
	var notFoundErr *assets.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondWithError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &authErr):
		utils.RespondWithError(w, http.StatusForbidden, authErr.Message)
	case errors.As(err, &notFoundErr):
		utils.RespondWithError(w, http.StatusNotFound, notFoundErr.Message)
	default:
		log.Printf("asset operation failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "asset operation failed")
	}
}

type BookingRequest struct {
	UserID    string `json:"userId"`
	AssetType string `json:"assetType"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// BookInAsset records an agent collecting (or not collecting) an asset at
// shift start.
func BookInAsset(w http.ResponseWriter, r *http.Request) {
	handleBooking(w, r, assetService.BookIn)
}

// BookOutAsset records an agent returning (or not returning) an asset at
// shift end.
func BookOutAsset(w http.ResponseWriter, r *http.Request) {
	handleBooking(w, r, assetService.BookOut)
}

func handleBooking(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actorID, userID primitive.ObjectID, assetType, date, status, reason string) (*models.AssetDailyState, error)) {

	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}

	var req BookingRequest
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	state, err := op(ctx, actorID, userID, req.AssetType, req.Date, req.Status, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, state)
}

type MarkFoundRequest struct {
	UserID         string `json:"userId"`
	AssetType      string `json:"assetType"`
	Date           string `json:"date"`
	RecoveryReason string `json:"recoveryReason"`
}

// MarkAssetFound corrects a not_returned or lost asset back to returned.
func MarkAssetFound(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}

	var req MarkFoundRequest
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.RecoveryReason == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "recoveryReason is required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	state, err := assetService.MarkFound(ctx, actorID, userID, req.AssetType, req.Date, req.RecoveryReason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, state)
}

type ResetAgentRequest struct {
	AgentID  string `json:"agentId"`
	Date     string `json:"date,omitempty"`
	Password string `json:"password"`
}

// ResetAgentRecords is the destructive team-leader override that wipes an
// agent's daily states for a date. The acting leader must re-authenticate
// with their password.
func ResetAgentRecords(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}

	var req ResetAgentRequest
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	agentID, err := primitive.ObjectIDFromHex(req.AgentID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Re-authenticate the acting leader before anything destructive.
	var leader models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": actorID}).Decode(&leader); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if req.Password == "" || !utils.CheckPasswordHash(req.Password, leader.PasswordHash) {
		utils.RespondWithError(w, http.StatusForbidden, "password verification failed")
		return
	}

	statesReset, err := assetService.ResetAgentDay(ctx, &leader, agentID, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("agent records reset: agent=%s date=%s by=%s states=%d", agentID.Hex(), date, leader.FullName(), statesReset)
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"statesReset": statesReset})
}

// GetStateAudit returns the full transition history for a user.
func GetStateAudit(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	audits, err := assetService.Store().ListAuditsByUser(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if audits == nil {
		audits = []models.AssetStateAudit{}
	}
	utils.RespondWithJSON(w, http.StatusOK, audits)
}

// GetUnreturnedAssets lists every daily state that is still outstanding:
// collected assets not yet booked out plus not_returned and lost assets.
func GetUnreturnedAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	states, err := assetService.Store().ListDailyStatesInStates(ctx, []string{
		models.StateCollected, models.StateNotReturned, models.StateLost,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if states == nil {
		states = []models.AssetDailyState{}
	}
	utils.RespondWithJSON(w, http.StatusOK, states)
}

// GetAssetHistory returns the denormalized snapshot for a date.
func GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	record, err := assetService.Snapshots().Record(ctx, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if record == nil {
		utils.RespondWithError(w, http.StatusNotFound, "no historical record for "+date)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, record)
}
