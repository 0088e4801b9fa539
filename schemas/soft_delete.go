package schemas

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	DELETION_REASON_DUPLICATE          = "duplicate"
	DELETION_REASON_INVALID_DATA       = "invalid-data"
	DELETION_REASON_CUSTOMER_REQUEST   = "customer-request"
	DELETION_REASON_SPAM               = "spam"
	DELETION_REASON_TEST_DATA          = "test-data"
	DELETION_REASON_NO_LONGER_RELEVANT = "no-longer-relevant"
	DELETION_REASON_CONVERTED          = "converted"
	DELETION_REASON_OTHER              = "other"
)

var DeletionReasons = []string{
	DELETION_REASON_DUPLICATE,
	DELETION_REASON_INVALID_DATA,
	DELETION_REASON_CUSTOMER_REQUEST,
	DELETION_REASON_SPAM,
	DELETION_REASON_TEST_DATA,
	DELETION_REASON_NO_LONGER_RELEVANT,
	DELETION_REASON_CONVERTED,
	DELETION_REASON_OTHER,
}

func IsDeletionReason(reason string) bool {
	return slices.Contains(DeletionReasons, reason)
}

// SoftDelete is the deletion envelope. Either all of IsDeleted, DeletedAt,
// DeletedBy and DeletionReason are set, or none of them is.
type SoftDelete struct {
	IsDeleted      bool           `json:"is_deleted" bson:"is_deleted"`
	DeletedAt      *time.Time     `json:"deleted_at" bson:"deleted_at"`
	DeletedBy      *bson.ObjectID `json:"deleted_by" bson:"deleted_by"`
	DeletionReason *string        `json:"deletion_reason" bson:"deletion_reason"`
	DeletionNotes  *string        `json:"deletion_notes" bson:"deletion_notes"`
}

func (s *SoftDelete) Deleted() bool { return s.IsDeleted }

// Consistent reports whether the envelope is fully set or fully cleared.
func (s *SoftDelete) Consistent() bool {
	if s.IsDeleted {
		return s.DeletedAt != nil && s.DeletedBy != nil && s.DeletionReason != nil
	}
	return s.DeletedAt == nil && s.DeletedBy == nil && s.DeletionReason == nil && s.DeletionNotes == nil
}
