package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"crm/lifecycle"
	"crm/repository"
	"crm/schemas"

	"github.com/sirupsen/logrus"
)

const DEFAULT_BATCH_SIZE = 500

const selectLeads = `SELECT id, first_name, last_name, email, phone, company, job_title, source, notes, created_at
FROM legacy_leads WHERE id > ? ORDER BY id LIMIT ?`

// LeadCreator creates leads through the lifecycle rules.
type LeadCreator interface {
	CreateLead(ctx context.Context, actor schemas.Actor, in lifecycle.LeadInput) (*lifecycle.LeadResult, error)
}

type legacyLead struct {
	ID        int64
	FirstName sql.NullString
	LastName  sql.NullString
	Email     sql.NullString
	Phone     sql.NullString
	Company   sql.NullString
	JobTitle  sql.NullString
	Source    sql.NullString
	Notes     sql.NullString
	CreatedAt sql.NullTime
}

// Report summarizes one import run.
type Report struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Importer copies leads from the legacy MySQL CRM. Leads already imported,
// matched by old_id, are skipped, so a run can be repeated.
type Importer struct {
	DB        *sql.DB
	Leads     *repository.Repository[schemas.Lead]
	Creator   LeadCreator
	Log       logrus.FieldLogger
	BatchSize int
}

func (i *Importer) Run(ctx context.Context, actor schemas.Actor) (Report, error) {
	report := Report{}
	batch := i.BatchSize
	if batch <= 0 {
		batch = DEFAULT_BATCH_SIZE
	}

	var lastID int64
	for {
		rows, err := i.fetch(ctx, lastID, batch)
		if err != nil {
			return report, err
		}
		for _, row := range rows {
			lastID = row.ID
			i.importOne(ctx, actor, row, &report)
		}
		if len(rows) < batch {
			return report, nil
		}
	}
}

func (i *Importer) fetch(ctx context.Context, after int64, limit int) ([]legacyLead, error) {
	rows, err := i.DB.QueryContext(ctx, selectLeads, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy leads: %w", err)
	}
	defer rows.Close()

	leads := []legacyLead{}
	for rows.Next() {
		l := legacyLead{}
		if err := rows.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
			&l.Company, &l.JobTitle, &l.Source, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan legacy lead row: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy lead rows: %w", err)
	}
	return leads, nil
}

func (i *Importer) importOne(ctx context.Context, actor schemas.Actor, row legacyLead, report *Report) {
	oldID := strconv.FormatInt(row.ID, 10)
	log := i.Log.WithField("old_id", oldID)

	n, err := i.Leads.Count(ctx, actor.OrganizationID, repository.Filter{"old_id": oldID}, repository.IncludeDeleted)
	if err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", oldID, err))
		log.WithError(err).Error("failed to check imported lead")
		return
	}
	if n > 0 {
		report.Skipped++
		return
	}

	if _, err := i.Creator.CreateLead(ctx, actor, row.input()); err != nil {
		report.Failed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", oldID, err))
		log.WithError(err).Warn("legacy lead rejected")
		return
	}
	report.Imported++
}

func (l legacyLead) input() lifecycle.LeadInput {
	in := lifecycle.LeadInput{
		FirstName: optional(l.FirstName),
		LastName:  optional(l.LastName),
		Email:     optional(l.Email),
		Phone:     optional(l.Phone),
		Company:   optional(l.Company),
		JobTitle:  optional(l.JobTitle),
		OldID:     strconv.FormatInt(l.ID, 10),
	}
	if l.LastName.Valid && strings.TrimSpace(l.LastName.String) == "" {
		in.LastName = nil
	}
	if l.Email.Valid {
		email := strings.ToLower(strings.TrimSpace(l.Email.String))
		in.Email = &email
	}
	source := normalizeSource(l.Source.String)
	in.LeadSource = &source

	notes := strings.TrimSpace(l.Notes.String)
	if l.CreatedAt.Valid {
		line := fmt.Sprintf("Imported from legacy CRM (created %s)", l.CreatedAt.Time.Format(time.DateOnly))
		if notes != "" {
			notes += "\n"
		}
		notes += line
	}
	if notes != "" {
		in.Notes = &notes
	}
	return in
}

func optional(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := strings.TrimSpace(s.String)
	return &v
}

// normalizeSource maps a free-text legacy source onto the lead source enum.
func normalizeSource(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	if slices.Contains(schemas.LeadSources, s) {
		return s
	}
	return schemas.LEAD_SOURCE_OTHER
}
