package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	HISTORY_ACTION_CREATED        = "created"
	HISTORY_ACTION_UPDATED        = "updated"
	HISTORY_ACTION_STATUS_CHANGED = "status_changed"
	HISTORY_ACTION_DELETED        = "deleted"
	HISTORY_ACTION_RESTORED       = "restored"
)

type LeadHistory struct {
	ID             bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	LeadID         bson.ObjectID  `json:"lead_id" bson:"lead_id"`
	Action         string         `json:"action" bson:"action"`
	Changes        map[string]any `json:"changes" bson:"changes"`
	OldValues      map[string]any `json:"old_values" bson:"old_values"`
	NewValues      map[string]any `json:"new_values" bson:"new_values"`
	UserID         bson.ObjectID  `json:"user_id" bson:"user_id"`
	OrganizationID bson.ObjectID  `json:"organization_id" bson:"organization_id"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
}

func (h *LeadHistory) Tenant() bson.ObjectID { return h.OrganizationID }

func (h *LeadHistory) SetTenant(orgID bson.ObjectID) { h.OrganizationID = orgID }
