package schemas

import "go.mongodb.org/mongo-driver/v2/bson"

type FieldValidation struct {
	MinLength int    `json:"min_length,omitempty" bson:"min_length,omitempty"`
	MaxLength int    `json:"max_length,omitempty" bson:"max_length,omitempty"`
	Pattern   string `json:"pattern,omitempty" bson:"pattern,omitempty"`
}

type LeadField struct {
	ID          int              `json:"id" bson:"id"`
	Name        string           `json:"name" bson:"name"`
	Label       string           `json:"label" bson:"label"`
	Type        string           `json:"type" bson:"type"`
	Required    bool             `json:"required" bson:"required"`
	Active      bool             `json:"active" bson:"active"`
	Options     []string         `json:"options,omitempty" bson:"options,omitempty"`
	Placeholder string           `json:"placeholder,omitempty" bson:"placeholder,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty" bson:"validation,omitempty"`
}

type LeadSourceOption struct {
	ID          int    `json:"id" bson:"id"`
	Value       string `json:"value" bson:"value"`
	Label       string `json:"label" bson:"label"`
	Active      bool   `json:"active" bson:"active"`
	Color       string `json:"color,omitempty" bson:"color,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

type LeadStageOption struct {
	ID          int    `json:"id" bson:"id"`
	Value       string `json:"value" bson:"value"`
	Label       string `json:"label" bson:"label"`
	Active      bool   `json:"active" bson:"active"`
	Color       string `json:"color,omitempty" bson:"color,omitempty"`
	Order       int    `json:"order" bson:"order"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

type CRMSettings struct {
	ID          bson.ObjectID      `json:"id,omitempty" bson:"_id,omitempty"`
	LeadFields  []LeadField        `json:"lead_fields" bson:"lead_fields"`
	LeadSources []LeadSourceOption `json:"lead_sources" bson:"lead_sources"`
	LeadStages  []LeadStageOption  `json:"lead_stages" bson:"lead_stages"`
	Settings    map[string]any     `json:"settings" bson:"settings"`
	Audit       `bson:",inline"`
}

// Flag reads a boolean entry of the free-form settings map.
func (s *CRMSettings) Flag(key string) bool {
	v, ok := s.Settings[key].(bool)
	return ok && v
}
