package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	LEAD_STAGE_NEW       = "New"
	LEAD_STAGE_CONTACTED = "Contacted"
	LEAD_STAGE_QUALIFIED = "Qualified"
	LEAD_STAGE_LOST      = "Lost"
	LEAD_STAGE_WON       = "Won"

	LEAD_SOURCE_OTHER = "other"

	BUDGET_NOT_SPECIFIED   = "not-specified"
	TIMELINE_NOT_SPECIFIED = "not-specified"
)

var LeadStages = []string{LEAD_STAGE_NEW, LEAD_STAGE_CONTACTED, LEAD_STAGE_QUALIFIED, LEAD_STAGE_LOST, LEAD_STAGE_WON}

var LeadSources = []string{
	"website", "social-media", "referral", "email-campaign", "cold-call",
	"trade-show", "google-ads", "linkedin", LEAD_SOURCE_OTHER,
}

var Budgets = []string{"5000+", "1000-5000", "500-1000", "100-500", "under-100", BUDGET_NOT_SPECIFIED}

var Timelines = []string{"immediate", "1-month", "1-3-months", "3-6-months", "6-12-months", TIMELINE_NOT_SPECIFIED}

type Lead struct {
	ID               bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OldID            string        `json:"old_id,omitempty" bson:"old_id,omitempty"`
	FirstName        string        `json:"first_name" bson:"first_name"`
	LastName         string        `json:"last_name" bson:"last_name"`
	Email            string        `json:"email,omitempty" bson:"email,omitempty"`
	Phone            string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Company          string        `json:"company,omitempty" bson:"company,omitempty"`
	JobTitle         string        `json:"job_title,omitempty" bson:"job_title,omitempty"`
	LeadSource       string        `json:"lead_source" bson:"lead_source"`
	LeadStage        string        `json:"lead_stage" bson:"lead_stage"`
	Budget           string        `json:"budget" bson:"budget"`
	Timeline         string        `json:"timeline" bson:"timeline"`
	ProductInterest  string        `json:"product_interest,omitempty" bson:"product_interest,omitempty"`
	InquiryType      string        `json:"inquiry_type,omitempty" bson:"inquiry_type,omitempty"`
	Notes            string        `json:"notes,omitempty" bson:"notes,omitempty"`
	NextFollowUpDate *time.Time    `json:"next_follow_up_date,omitempty" bson:"next_follow_up_date,omitempty"`
	ConvertedDate    *time.Time    `json:"converted_date,omitempty" bson:"converted_date,omitempty"`
	Score            int           `json:"score" bson:"score"`
	ContactID        bson.ObjectID `json:"contact_id" bson:"contact_id"`
	Audit            `bson:",inline"`
	SoftDelete       `bson:",inline"`
}
