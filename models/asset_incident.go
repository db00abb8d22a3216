// models/asset_incident.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Incident types.
const (
	IncidentLost        = "lost"
	IncidentNotReturned = "not_returned"
	IncidentMaintenance = "maintenance"
	IncidentOther       = "other"
)

// Incident statuses. Resolution is one-way: open -> resolved.
const (
	IncidentOpen     = "open"
	IncidentResolved = "resolved"
)

// AssetIncident records an automatically or manually raised exception for an
// agent's asset, independent of any single day.
type AssetIncident struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	AssetType    string             `bson:"assetType" json:"assetType"`
	IncidentType string             `bson:"incidentType" json:"incidentType"`
	Description  string             `bson:"description" json:"description"`
	ReportedBy   primitive.ObjectID `bson:"reportedBy" json:"reportedBy"`
	Status       string             `bson:"status" json:"status"`
	Resolution   string             `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedBy   primitive.ObjectID `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
