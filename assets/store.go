package assets

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tsiemasilo/pulse-app-system-sub000/models"
)

// Store is the persistence surface the asset lifecycle engine needs. The
// production implementation sits on MongoDB (mongo.go); tests run against an
// in-memory double.
//
// Lookup methods return (nil, nil) when no document matches; callers decide
// whether absence is an error.
type Store interface {
	// Daily states. Upsert is keyed by (userId, date, assetType) so two
	// writes to the same key always converge on one row.
	GetDailyState(ctx context.Context, userID primitive.ObjectID, date, assetType string) (*models.AssetDailyState, error)
	UpsertDailyState(ctx context.Context, state *models.AssetDailyState) error
	ListDailyStatesByDate(ctx context.Context, date string) ([]models.AssetDailyState, error)
	ListDailyStatesForUserDate(ctx context.Context, userID primitive.ObjectID, date string) ([]models.AssetDailyState, error)
	ListDailyStatesInStates(ctx context.Context, states []string) ([]models.AssetDailyState, error)
	DeleteDailyState(ctx context.Context, id primitive.ObjectID) error

	// Audit log. Append-only; bulk delete exists only for the agent-day reset.
	InsertAudit(ctx context.Context, audit *models.AssetStateAudit) error
	ListAuditsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.AssetStateAudit, error)
	DeleteAuditsForUserDate(ctx context.Context, userID primitive.ObjectID, date string) (int64, error)
	HasDailyResetMarker(ctx context.Context, date string) (bool, error)

	// Incidents.
	InsertIncident(ctx context.Context, incident *models.AssetIncident) error
	GetIncident(ctx context.Context, id primitive.ObjectID) (*models.AssetIncident, error)
	ListIncidents(ctx context.Context, status string) ([]models.AssetIncident, error)
	FindOpenIncident(ctx context.Context, userID primitive.ObjectID, assetType string) (*models.AssetIncident, error)
	ResolveIncident(ctx context.Context, id primitive.ObjectID, resolution string, resolvedBy primitive.ObjectID, at time.Time) error
	ResolveOpenIncidents(ctx context.Context, userID primitive.ObjectID, assetType, resolution string, resolvedBy primitive.ObjectID, at time.Time) (int64, error)

	// Loss records, keyed by (userId, assetType, dateLost).
	UpsertLossRecord(ctx context.Context, record *models.AssetLossRecord) error
	DeleteLossRecord(ctx context.Context, userID primitive.ObjectID, assetType, dateLost string) error
	ListLossRecordsByDate(ctx context.Context, dateLost string) ([]models.AssetLossRecord, error)

	// Historical snapshots, one document per date, replaced wholesale.
	UpsertHistoricalRecord(ctx context.Context, record *models.HistoricalAssetRecord) error
	GetHistoricalRecord(ctx context.Context, date string) (*models.HistoricalAssetRecord, error)

	// User directory reads needed for display names and team checks.
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
