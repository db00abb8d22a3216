// models/asset_audit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetStateAudit is an append-only log row written for every accepted
// transition. DailyStateID is left empty on rows produced by an agent-day
// reset so the audit never dangles after its parent state is deleted.
type AssetStateAudit struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DailyStateID  primitive.ObjectID `bson:"dailyStateId,omitempty" json:"dailyStateId,omitempty"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Date          string             `bson:"date,omitempty" json:"date,omitempty"`
	AssetType     string             `bson:"assetType" json:"assetType"`
	PreviousState string             `bson:"previousState" json:"previousState"`
	NewState      string             `bson:"newState" json:"newState"`
	Reason        string             `bson:"reason,omitempty" json:"reason,omitempty"`
	ChangedBy     primitive.ObjectID `bson:"changedBy" json:"changedBy"`
	ChangedAt     time.Time          `bson:"changedAt" json:"changedAt"`
}

// DailyResetMarkerType tags the audit row the daily reset engine appends when
// it completes a date. Its presence is the idempotency check for that date.
const DailyResetMarkerType = "daily_reset_marker"
