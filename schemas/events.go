package schemas

import "go.mongodb.org/mongo-driver/v2/bson"

const (
	EVENT_CREATED  = "created"
	EVENT_UPDATED  = "updated"
	EVENT_DELETED  = "deleted"
	EVENT_RESTORED = "restored"
)

// Event describes a lifecycle change pushed to an organization's realtime feed.
type Event struct {
	Type   string        `json:"type"`
	Entity string        `json:"entity"`
	ID     bson.ObjectID `json:"id"`
	Data   any           `json:"data,omitempty"`
}
