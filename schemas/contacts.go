package schemas

import (
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Contact struct {
	ID         bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName  string         `json:"first_name" bson:"first_name"`
	LastName   string         `json:"last_name" bson:"last_name"`
	Email      string         `json:"email,omitempty" bson:"email,omitempty"`
	Phone      string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Company    string         `json:"company,omitempty" bson:"company,omitempty"`
	JobTitle   string         `json:"job_title,omitempty" bson:"job_title,omitempty"`
	Notes      string         `json:"notes,omitempty" bson:"notes,omitempty"`
	LeadID     *bson.ObjectID `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	Audit      `bson:",inline"`
	SoftDelete `bson:",inline"`
}

// FullName joins the name parts, skipping the ones that are blank.
func (c *Contact) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(c.FirstName+" "+c.LastName), " "))
}

func (c Contact) MarshalJSON() ([]byte, error) {
	type contact Contact
	return json.Marshal(struct {
		contact
		FullName string `json:"full_name"`
	}{contact(c), c.FullName()})
}
