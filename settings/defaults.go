package settings

import "crm/schemas"

const (
	KEY_AUTO_ASSIGN_LEADS      = "autoAssignLeads"
	KEY_LEAD_SCORING           = "leadScoring"
	KEY_EMAIL_NOTIFICATIONS    = "emailNotifications"
	KEY_DUPLICATE_DETECTION    = "duplicateDetection"
	KEY_LEAD_EXPIRATION        = "leadExpiration"
	KEY_MAX_LEADS_PER_USER     = "maxLeadsPerUser"
	KEY_REQUIRE_CONTACT_METHOD = "requireContactMethod"
)

// leadFieldColumns maps configurable lead field names to lead document fields.
var leadFieldColumns = map[string]string{
	"firstName":  "first_name",
	"lastName":   "last_name",
	"email":      "email",
	"phone":      "phone",
	"leadSource": "lead_source",
	"company":    "company",
	"jobTitle":   "job_title",
}

// Defaults returns a fresh copy of the default catalog.
func Defaults() schemas.CRMSettings {
	return schemas.CRMSettings{
		LeadFields: []schemas.LeadField{
			{ID: 1, Name: "firstName", Label: "First Name", Type: "text", Active: true},
			{ID: 2, Name: "lastName", Label: "Last Name", Type: "text", Required: true, Active: true},
			{ID: 3, Name: "email", Label: "Email", Type: "email", Active: true},
			{ID: 4, Name: "phone", Label: "Phone", Type: "tel", Active: true},
			{ID: 5, Name: "leadSource", Label: "Lead Source", Type: "select", Active: true},
			{ID: 6, Name: "company", Label: "Company", Type: "text", Active: true},
			{ID: 7, Name: "jobTitle", Label: "Job Title", Type: "text", Active: true},
		},
		LeadSources: []schemas.LeadSourceOption{
			{ID: 1, Value: "website", Label: "Website", Active: true, Color: "#3B82F6"},
			{ID: 2, Value: "social-media", Label: "Social Media", Active: true, Color: "#8B5CF6"},
			{ID: 3, Value: "referral", Label: "Referral", Active: true, Color: "#10B981"},
			{ID: 4, Value: "email-campaign", Label: "Email Campaign", Active: true, Color: "#F59E0B"},
			{ID: 5, Value: "cold-call", Label: "Cold Call", Active: true, Color: "#EF4444"},
			{ID: 6, Value: "trade-show", Label: "Trade Show", Active: true, Color: "#06B6D4"},
			{ID: 7, Value: "google-ads", Label: "Google Ads", Active: true, Color: "#84CC16"},
			{ID: 8, Value: "linkedin", Label: "LinkedIn", Active: true, Color: "#0EA5E9"},
			{ID: 9, Value: "other", Label: "Other", Active: true, Color: "#6B7280"},
		},
		LeadStages: []schemas.LeadStageOption{
			{ID: 1, Value: "New", Label: "New", Active: true, Color: "#3B82F6", Order: 1},
			{ID: 2, Value: "Contacted", Label: "Contacted", Active: true, Color: "#8B5CF6", Order: 2},
			{ID: 3, Value: "Qualified", Label: "Qualified", Active: true, Color: "#10B981", Order: 3},
			{ID: 4, Value: "Proposal", Label: "Proposal", Active: true, Color: "#F59E0B", Order: 4},
			{ID: 5, Value: "Won", Label: "Won", Active: true, Color: "#22C55E", Order: 5},
			{ID: 6, Value: "Lost", Label: "Lost", Active: true, Color: "#EF4444", Order: 6},
		},
		Settings: map[string]any{
			KEY_AUTO_ASSIGN_LEADS:      false,
			KEY_LEAD_SCORING:           false,
			KEY_EMAIL_NOTIFICATIONS:    true,
			KEY_DUPLICATE_DETECTION:    true,
			KEY_LEAD_EXPIRATION:        30,
			KEY_MAX_LEADS_PER_USER:     1000,
			KEY_REQUIRE_CONTACT_METHOD: false,
		},
	}
}

type dealStageDefault struct {
	name        string
	probability int
	color       string
	isDefault   bool
}

var defaultDealStages = []dealStageDefault{
	{schemas.DEAL_STAGE_QUALIFIED, 25, "#10B981", true},
	{schemas.DEAL_STAGE_PROPOSAL, 50, "#3B82F6", false},
	{schemas.DEAL_STAGE_NEGOTIATION, 75, "#F59E0B", false},
	{schemas.DEAL_STAGE_CLOSED_WON, 100, "#059669", false},
	{schemas.DEAL_STAGE_CLOSED_LOST, 0, "#DC2626", false},
}
