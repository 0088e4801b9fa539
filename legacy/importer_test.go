package legacy

import (
	"context"
	"regexp"
	"testing"
	"time"

	"crm/lifecycle"
	"crm/repository"
	"crm/schemas"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var columns = []string{"id", "first_name", "last_name", "email", "phone", "company", "job_title", "source", "notes", "created_at"}

func newImporter(t *testing.T, batch int) (*Importer, sqlmock.Sqlmock, *repository.Set, schemas.Actor) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log, _ := test.NewNullLogger()
	repos := repository.NewMemorySet()
	engine := lifecycle.New(lifecycle.Deps{Repos: repos, Logger: log})
	actor := schemas.Actor{UserID: bson.NewObjectID(), OrganizationID: bson.NewObjectID(), Role: schemas.ROLE_ADMIN}

	return &Importer{DB: db, Leads: repos.Leads, Creator: engine, Log: log, BatchSize: batch}, mock, repos, actor
}

func TestImportIsIdempotent(t *testing.T) {
	imp, mock, repos, actor := newImporter(t, 10)
	ctx := context.Background()
	created := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(columns).
			AddRow(1, "Ann", "Smith", "Ann@Example.com", "555-0100", "Acme", "CEO", "Trade Show", "vip", created).
			AddRow(2, "Bob", "", nil, nil, nil, nil, "flyer", nil, nil)
	}
	query := regexp.QuoteMeta("SELECT id, first_name, last_name")
	mock.ExpectQuery(query).WithArgs(int64(0), 10).WillReturnRows(rows())
	mock.ExpectQuery(query).WithArgs(int64(0), 10).WillReturnRows(rows())

	report, err := imp.Run(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Errors, 1)

	lead, err := repos.Leads.FindOne(ctx, actor.OrganizationID, repository.Filter{"old_id": "1"}, repository.ExcludeDeleted)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", lead.Email)
	assert.Equal(t, "trade-show", lead.LeadSource)
	assert.Equal(t, "vip\nImported from legacy CRM (created 2021-03-04)", lead.Notes)
	assert.Equal(t, actor.UserID, lead.CreatedBy)
	assert.False(t, lead.ContactID.IsZero())

	again, err := imp.Run(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 1, again.Skipped)
	assert.Equal(t, 1, again.Failed)

	n, err := repos.Leads.Count(ctx, actor.OrganizationID, repository.Filter{}, repository.IncludeDeleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportPagesThroughRows(t *testing.T) {
	imp, mock, _, actor := newImporter(t, 2)
	query := regexp.QuoteMeta("FROM legacy_leads")

	mock.ExpectQuery(query).WithArgs(int64(0), 2).WillReturnRows(sqlmock.NewRows(columns).
		AddRow(3, nil, "Jones", nil, nil, nil, nil, "website", nil, nil).
		AddRow(7, nil, "Brown", nil, nil, nil, nil, "LinkedIn", nil, nil))
	mock.ExpectQuery(query).WithArgs(int64(7), 2).WillReturnRows(sqlmock.NewRows(columns).
		AddRow(9, nil, "Green", nil, nil, nil, nil, nil, nil, nil))

	report, err := imp.Run(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportStopsOnQueryError(t *testing.T) {
	imp, mock, _, actor := newImporter(t, 10)
	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err := imp.Run(context.Background(), actor)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNormalizeSource(t *testing.T) {
	assert.Equal(t, "social-media", normalizeSource("Social Media"))
	assert.Equal(t, "google-ads", normalizeSource("google_ads"))
	assert.Equal(t, "other", normalizeSource("billboard"))
	assert.Equal(t, "other", normalizeSource(""))
}
