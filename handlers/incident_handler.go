package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
	"github.com/tsiemasilo/pulse-app-system-sub000/utils"
)

// ListIncidents returns incidents, optionally filtered by status.
func ListIncidents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != models.IncidentOpen && status != models.IncidentResolved {
		utils.RespondWithError(w, http.StatusBadRequest, "status must be open or resolved")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	incidents, err := assetService.Store().ListIncidents(ctx, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if incidents == nil {
		incidents = []models.AssetIncident{}
	}
	utils.RespondWithJSON(w, http.StatusOK, incidents)
}

type CreateIncidentRequest struct {
	UserID       string `json:"userId"`
	AssetType    string `json:"assetType"`
	IncidentType string `json:"incidentType"`
	Description  string `json:"description"`
}

// CreateIncident lets team leaders raise an incident manually, e.g. for
// maintenance or damage that the daily lifecycle does not capture.
func CreateIncident(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}

	var req CreateIncidentRequest
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !models.ValidAssetType(req.AssetType) {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown asset type")
		return
	}
	switch req.IncidentType {
	case models.IncidentLost, models.IncidentNotReturned, models.IncidentMaintenance, models.IncidentOther:
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "unknown incident type")
		return
	}
	if req.Description == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "description is required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	incident := &models.AssetIncident{
		UserID:       userID,
		AssetType:    req.AssetType,
		IncidentType: req.IncidentType,
		Description:  req.Description,
		ReportedBy:   actorID,
		Status:       models.IncidentOpen,
		CreatedAt:    time.Now().UTC(),
	}
	if err := assetService.Store().InsertIncident(ctx, incident); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, incident)
}

type ResolveIncidentRequest struct {
	Resolution string `json:"resolution"`
}

// ResolveIncident closes an open incident. Resolution is one-way.
func ResolveIncident(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorFromContext(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
		return
	}

	incidentID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid incident id")
		return
	}

	var req ResolveIncidentRequest
	if err := utils.ParseJSON(r, &req); err != nil || req.Resolution == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "resolution is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := assetService.Store().ResolveIncident(ctx, incidentID, req.Resolution, actorID, time.Now().UTC()); err != nil {
		respondServiceError(w, err)
		return
	}

	incident, err := assetService.Store().GetIncident(ctx, incidentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, incident)
}
