package lifecycle

import (
	"strings"

	"crm/schemas"
)

var sourceScores = map[string]int{
	"referral":       20,
	"website":        15,
	"linkedin":       15,
	"trade-show":     12,
	"google-ads":     10,
	"social-media":   10,
	"email-campaign": 8,
	"cold-call":      5,
	"other":          3,
}

var budgetScores = map[string]int{
	"5000+":     30,
	"1000-5000": 25,
	"500-1000":  20,
	"100-500":   15,
	"under-100": 5,
}

var timelineScores = map[string]int{
	"immediate":   25,
	"1-month":     20,
	"1-3-months":  15,
	"3-6-months":  10,
	"6-12-months": 5,
}

var seniorTitles = []string{"director", "manager", "ceo", "owner"}

// Score rates a lead from 0 to 100. Unknown enum values score zero.
func Score(lead *schemas.Lead) int {
	score := sourceScores[lead.LeadSource] + budgetScores[lead.Budget] + timelineScores[lead.Timeline]

	if strings.TrimSpace(lead.Company) != "" {
		score += 10
	}
	title := strings.ToLower(lead.JobTitle)
	for _, t := range seniorTitles {
		if strings.Contains(title, t) {
			score += 15
			break
		}
	}
	if strings.TrimSpace(lead.ProductInterest) != "" {
		score += 5
	}
	return min(score, 100)
}
