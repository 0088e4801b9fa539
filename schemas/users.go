package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID             bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName      string        `json:"first_name" bson:"first_name"`
	LastName       string        `json:"last_name" bson:"last_name"`
	Email          string        `json:"email" bson:"email"`
	Password       string        `json:"-" bson:"password"`
	OrganizationID bson.ObjectID `json:"organization_id" bson:"organization_id"`
	Role           string        `json:"role" bson:"role"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, OrganizationID: u.OrganizationID, Role: u.Role}
}

type Organization struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string        `json:"name" bson:"name"`
	Owner     bson.ObjectID `json:"owner,omitempty" bson:"owner,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}
