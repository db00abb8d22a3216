// models/historical.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingSnapshot is one user's projected booking state inside a historical
// record. It mirrors the live AssetDailyState rows but is keyed for reporting.
type BookingSnapshot struct {
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	AgentName   string             `bson:"agentName" json:"agentName"`
	States      map[string]string  `bson:"states" json:"states"` // assetType -> currentState
	ConfirmedBy primitive.ObjectID `bson:"confirmedBy" json:"confirmedBy"`
	ConfirmedAt time.Time          `bson:"confirmedAt" json:"confirmedAt"`
}

// LostAssetEntry is a loss line item inside a historical record.
type LostAssetEntry struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	AgentName string             `bson:"agentName" json:"agentName"`
	AssetType string             `bson:"assetType" json:"assetType"`
	Reason    string             `bson:"reason,omitempty" json:"reason,omitempty"`
}

// HistoricalAssetRecord is the denormalized per-date snapshot used by
// reporting. It is never patched incrementally: the synchronizer rebuilds it
// wholesale from the live collections after every booking write, so it can
// always be regenerated and is never a source of truth.
type HistoricalAssetRecord struct {
	ID             primitive.ObjectID         `bson:"_id,omitempty" json:"id"`
	Date           string                     `bson:"date" json:"date"` // YYYY-MM-DD, unique
	BookInRecords  map[string]BookingSnapshot `bson:"bookInRecords" json:"bookInRecords"`   // userId hex -> snapshot
	BookOutRecords map[string]BookingSnapshot `bson:"bookOutRecords" json:"bookOutRecords"` // userId hex -> snapshot
	LostAssets     []LostAssetEntry           `bson:"lostAssets" json:"lostAssets"`
	UpdatedAt      time.Time                  `bson:"updatedAt" json:"updatedAt"`
}
