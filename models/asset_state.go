// models/asset_state.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Asset types tracked per agent per day.
const (
	AssetTypeLaptop   = "laptop"
	AssetTypeHeadsets = "headsets"
	AssetTypeDongle   = "dongle"
)

// Daily lifecycle states. ReadyForCollection is the implicit initial state
// (no row exists yet) but is kept as an explicit constant so audits and the
// validator never deal in empty strings.
const (
	StateReadyForCollection = "ready_for_collection"
	StateCollected          = "collected"
	StateNotCollected       = "not_collected"
	StateReturned           = "returned"
	StateNotReturned        = "not_returned"
	StateLost               = "lost"
)

// AllAssetTypes lists the equipment every agent is issued.
var AllAssetTypes = []string{AssetTypeLaptop, AssetTypeHeadsets, AssetTypeDongle}

func ValidAssetType(t string) bool {
	switch t {
	case AssetTypeLaptop, AssetTypeHeadsets, AssetTypeDongle:
		return true
	}
	return false
}

// AssetDailyState is the per-(user, date, assetType) lifecycle row.
// At most one row exists per key; writes are upserts, never inserts of a
// second row for the same key.
type AssetDailyState struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Date         string             `bson:"date" json:"date"` // YYYY-MM-DD
	AssetType    string             `bson:"assetType" json:"assetType"`
	CurrentState string             `bson:"currentState" json:"currentState"`
	ConfirmedBy  primitive.ObjectID `bson:"confirmedBy" json:"confirmedBy"`
	ConfirmedAt  time.Time          `bson:"confirmedAt" json:"confirmedAt"`
	Reason       string             `bson:"reason,omitempty" json:"reason,omitempty"`
	AgentName    string             `bson:"agentName" json:"agentName"`
}
