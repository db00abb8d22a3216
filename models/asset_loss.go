// models/asset_loss.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetLossRecord is the loss-specific record kept for historical and
// compliance reporting, keyed by (userId, assetType, dateLost). It is created
// when an asset is explicitly marked lost and deleted automatically when the
// same asset is later marked returned or collected for the same date.
type AssetLossRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	AssetType  string             `bson:"assetType" json:"assetType"`
	DateLost   string             `bson:"dateLost" json:"dateLost"` // YYYY-MM-DD
	AgentName  string             `bson:"agentName" json:"agentName"`
	Reason     string             `bson:"reason,omitempty" json:"reason,omitempty"`
	ReportedBy primitive.ObjectID `bson:"reportedBy" json:"reportedBy"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
