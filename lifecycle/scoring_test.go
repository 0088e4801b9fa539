package lifecycle

import (
	"testing"

	"crm/schemas"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		lead schemas.Lead
		want int
	}{
		{"referral, top budget, immediate", schemas.Lead{LeadSource: "referral", Budget: "5000+", Timeline: "immediate"}, 75},
		{"unknown values", schemas.Lead{LeadSource: "carrier-pigeon", Budget: "lots", Timeline: "soon"}, 0},
		{"not specified", schemas.Lead{LeadSource: "other", Budget: "not-specified", Timeline: "not-specified"}, 3},
		{"company and title", schemas.Lead{LeadSource: "cold-call", Company: "Acme", JobTitle: "Sales Manager"}, 30},
		{"title is case-insensitive", schemas.Lead{JobTitle: "CEO"}, 15},
		{"product interest", schemas.Lead{ProductInterest: "premium"}, 5},
		{"clamped", schemas.Lead{
			LeadSource: "referral", Budget: "5000+", Timeline: "immediate",
			Company: "Acme", JobTitle: "Owner", ProductInterest: "all",
		}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(&tc.lead))
		})
	}
}

func TestScoreBounds(t *testing.T) {
	companies := []string{"", "Acme"}
	titles := []string{"", "Engineer", "Director of Sales"}
	products := []string{"", "premium"}
	sources := append(append([]string{}, schemas.LeadSources...), "unknown")

	for _, src := range sources {
		for _, budget := range schemas.Budgets {
			for _, timeline := range schemas.Timelines {
				for _, company := range companies {
					for _, title := range titles {
						for _, product := range products {
							l := schemas.Lead{
								LeadSource: src, Budget: budget, Timeline: timeline,
								Company: company, JobTitle: title, ProductInterest: product,
							}
							s := Score(&l)
							assert.GreaterOrEqual(t, s, 0)
							assert.LessOrEqual(t, s, 100)
						}
					}
				}
			}
		}
	}
}
