// handlers/collections.go
package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tsiemasilo/pulse-app-system-sub000/assets"
	"github.com/tsiemasilo/pulse-app-system-sub000/config"
	"github.com/tsiemasilo/pulse-app-system-sub000/database"
)

var (
	orgCollection  *mongo.Collection
	userCollection *mongo.Collection

	assetService *assets.Service
	resetEngine  *assets.ResetEngine
	scheduler    *assets.Scheduler
)

// systemActorID is the identity stamped on records created by the scheduler
// rather than a human operator. Hex of "system-actor".
var systemActorID, _ = primitive.ObjectIDFromHex("73797374656d2d6163746f72")

func InitCollections() {
	db := database.DB()
	orgCollection = db.Collection("organizations")
	userCollection = db.Collection("users")
}

// InitAssetServices wires the asset lifecycle engine and starts the daily
// reset scheduler. Call after InitCollections.
func InitAssetServices(notifier assets.Notifier) {
	store := assets.NewMongoStore(database.DB())
	assetService = assets.NewService(store, notifier, nil)
	resetEngine = assets.NewResetEngine(store, nil)
	scheduler = assets.NewScheduler(resetEngine, systemActorID, config.SchedulerInterval, config.ResetHour, nil)
	scheduler.Start()
}

// StopScheduler halts the background reset scheduler during shutdown.
func StopScheduler() {
	if scheduler != nil {
		scheduler.Stop()
	}
}

func actorFromContext(r *http.Request) (primitive.ObjectID, bool) {
	userIDStr, ok := r.Context().Value("userID").(string)
	if !ok || userIDStr == "" {
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return userID, true
}
