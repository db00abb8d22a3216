// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workforce roles.
const (
	RoleAgent      = "agent"
	RoleTeamLeader = "team_leader"
	RoleManager    = "manager"
	RoleAdmin      = "admin"
	RoleHR         = "hr"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	Role           string             `bson:"role" json:"role"`
	TeamLeaderID   primitive.ObjectID `bson:"teamLeaderId,omitempty" json:"teamLeaderId,omitempty"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// FullName returns the display name cached on daily state rows.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
