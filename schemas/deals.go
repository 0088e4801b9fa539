package schemas

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	DEAL_STAGE_QUALIFIED   = "Qualified"
	DEAL_STAGE_PROPOSAL    = "Proposal"
	DEAL_STAGE_NEGOTIATION = "Negotiation"
	DEAL_STAGE_CLOSED_WON  = "Closed Won"
	DEAL_STAGE_CLOSED_LOST = "Closed Lost"

	DEAL_TYPE_NEW_ACCOUNT   = "new-account"
	DEAL_TYPE_ACCOUNT_SETUP = "account-setup"
	DEAL_TYPE_UPGRADE       = "upgrade"
	DEAL_TYPE_RENEWAL       = "renewal"
	DEAL_TYPE_OTHER         = "other"

	DEFAULT_DEAL_PROBABILITY = 50
	DEFAULT_CURRENCY         = "USD"
)

var DealStages = []string{DEAL_STAGE_QUALIFIED, DEAL_STAGE_PROPOSAL, DEAL_STAGE_NEGOTIATION, DEAL_STAGE_CLOSED_WON, DEAL_STAGE_CLOSED_LOST}

var DealTypes = []string{DEAL_TYPE_NEW_ACCOUNT, DEAL_TYPE_ACCOUNT_SETUP, DEAL_TYPE_UPGRADE, DEAL_TYPE_RENEWAL, DEAL_TYPE_OTHER}

var Currencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "INR"}

type Deal struct {
	ID              bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName       string         `json:"first_name" bson:"first_name"`
	LastName        string         `json:"last_name" bson:"last_name"`
	Stage           string         `json:"stage" bson:"stage"`
	DealType        string         `json:"deal_type" bson:"deal_type"`
	CloseDate       time.Time      `json:"close_date" bson:"close_date"`
	ActualCloseDate *time.Time     `json:"actual_close_date,omitempty" bson:"actual_close_date,omitempty"`
	LeadSource      string         `json:"lead_source" bson:"lead_source"`
	Owner           bson.ObjectID  `json:"owner" bson:"owner"`
	Amount          float64        `json:"amount" bson:"amount"`
	RecurringAmount float64        `json:"recurring_amount,omitempty" bson:"recurring_amount,omitempty"`
	Currency        string         `json:"currency" bson:"currency"`
	Product         string         `json:"product,omitempty" bson:"product,omitempty"`
	Probability     int            `json:"probability" bson:"probability"`
	ExpectedRevenue float64        `json:"expected_revenue" bson:"expected_revenue"`
	Description     string         `json:"description,omitempty" bson:"description,omitempty"`
	LeadID          *bson.ObjectID `json:"lead_id,omitempty" bson:"lead_id,omitempty"`
	ContactID       bson.ObjectID  `json:"contact_id" bson:"contact_id"`
	AccountID       *bson.ObjectID `json:"account_id,omitempty" bson:"account_id,omitempty"`
	LastActivity    time.Time      `json:"last_activity" bson:"last_activity"`
	Audit           `bson:",inline"`
	SoftDelete      `bson:",inline"`
}

func (d *Deal) FullName() string {
	c := Contact{FirstName: d.FirstName, LastName: d.LastName}
	return c.FullName()
}

func (d *Deal) IsClosed() bool {
	return d.Stage == DEAL_STAGE_CLOSED_WON || d.Stage == DEAL_STAGE_CLOSED_LOST
}

// ComputeExpectedRevenue derives expected_revenue from amount and probability.
func (d *Deal) ComputeExpectedRevenue() {
	d.ExpectedRevenue = d.Amount * float64(d.Probability) / 100
}

func IsDealStage(stage string) bool { return slices.Contains(DealStages, stage) }
