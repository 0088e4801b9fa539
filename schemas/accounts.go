package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	ACCOUNT_STATUS_ACTIVE    = "active"
	ACCOUNT_STATUS_INACTIVE  = "inactive"
	ACCOUNT_STATUS_SUSPENDED = "suspended"
	ACCOUNT_STATUS_CANCELLED = "cancelled"
	ACCOUNT_STATUS_EXPIRED   = "expired"
	ACCOUNT_STATUS_PENDING   = "pending"

	BILLING_CYCLE_MONTHLY   = "monthly"
	BILLING_CYCLE_QUARTERLY = "quarterly"
	BILLING_CYCLE_YEARLY    = "yearly"

	SERVICE_TYPE_BASIC = "basic"

	RELATIONSHIP_SELF = "self"
)

var AccountStatuses = []string{
	ACCOUNT_STATUS_ACTIVE, ACCOUNT_STATUS_INACTIVE, ACCOUNT_STATUS_SUSPENDED,
	ACCOUNT_STATUS_CANCELLED, ACCOUNT_STATUS_EXPIRED, ACCOUNT_STATUS_PENDING,
}

var ServiceTypes = []string{SERVICE_TYPE_BASIC, "premium", "enterprise", "family", "student"}

var BillingCycles = []string{BILLING_CYCLE_MONTHLY, BILLING_CYCLE_QUARTERLY, BILLING_CYCLE_YEARLY}

var Relationships = []string{RELATIONSHIP_SELF, "spouse", "child", "parent", "sibling", "friend", "employee", "other"}

type Account struct {
	ID                  bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	AccountNumber       string         `json:"account_number" bson:"account_number"`
	AccountName         string         `json:"account_name" bson:"account_name"`
	ServiceType         string         `json:"service_type" bson:"service_type"`
	Status              string         `json:"status" bson:"status"`
	AccountHolderName   string         `json:"account_holder_name" bson:"account_holder_name"`
	AccountHolderEmail  string         `json:"account_holder_email,omitempty" bson:"account_holder_email,omitempty"`
	Relationship        string         `json:"relationship" bson:"relationship"`
	CurrentMonthlyPrice float64        `json:"current_monthly_price" bson:"current_monthly_price"`
	Currency            string         `json:"currency" bson:"currency"`
	BillingCycle        string         `json:"billing_cycle" bson:"billing_cycle"`
	StartDate           time.Time      `json:"start_date" bson:"start_date"`
	RenewalDate         time.Time      `json:"renewal_date" bson:"renewal_date"`
	LastPaymentDate     *time.Time     `json:"last_payment_date,omitempty" bson:"last_payment_date,omitempty"`
	TotalRevenue        float64        `json:"total_revenue" bson:"total_revenue"`
	ContactID           bson.ObjectID  `json:"contact_id" bson:"contact_id"`
	DealID              *bson.ObjectID `json:"deal_id,omitempty" bson:"deal_id,omitempty"`
	Notes               string         `json:"notes,omitempty" bson:"notes,omitempty"`
	Audit               `bson:",inline"`
	SoftDelete          `bson:",inline"`
}

// RenewalAfter returns the next renewal date for a billing cycle.
func RenewalAfter(start time.Time, cycle string) time.Time {
	switch cycle {
	case BILLING_CYCLE_QUARTERLY:
		return start.AddDate(0, 3, 0)
	case BILLING_CYCLE_YEARLY:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
