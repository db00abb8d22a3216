package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
	"github.com/tsiemasilo/pulse-app-system-sub000/utils"
)

// ListUsers returns the organization's user directory. Team leaders see only
// their own team; other roles see everyone in the organization.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	orgIDStr, ok := r.Context().Value("orgID").(string)
	if !ok || orgIDStr == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "organization id required")
		return
	}

	orgID, err := primitive.ObjectIDFromHex(orgIDStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid organization id format")
		return
	}

	userRole, _ := r.Context().Value("userRole").(string)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"organizationId": orgID}

	if userRole == models.RoleTeamLeader {
		actorID, ok := actorFromContext(r)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "user id required")
			return
		}
		filter["$or"] = []bson.M{
			{"teamLeaderId": actorID},
			{"_id": actorID},
		}
	}

	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}

	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}})

	cursor, err := userCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("users Find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "database query failed")
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		log.Printf("cursor decode error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode users")
		return
	}

	if users == nil {
		users = []models.User{}
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}
