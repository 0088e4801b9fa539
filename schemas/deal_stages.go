package schemas

import "go.mongodb.org/mongo-driver/v2/bson"

const DEFAULT_STAGE_COLOR = "#3B82F6"

type DealStage struct {
	ID          bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string        `json:"name" bson:"name"`
	Order       int           `json:"order" bson:"order"`
	Probability int           `json:"probability" bson:"probability"`
	IsActive    bool          `json:"is_active" bson:"is_active"`
	IsDefault   bool          `json:"is_default" bson:"is_default"`
	Color       string        `json:"color" bson:"color"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	Audit       `bson:",inline"`
}
