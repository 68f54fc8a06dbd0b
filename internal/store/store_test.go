package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caltrack/caltrack/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "caltrack.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestTemplateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTemplate(ctx, "gauge", "three point", "fields: []\n"))

	row, err := s.GetTemplate(ctx, "gauge")
	require.NoError(t, err)
	require.Equal(t, "three point", row.Description)
	require.Equal(t, "fields: []\n", row.Source)

	// Saving again under the same name replaces the source.
	require.NoError(t, s.SaveTemplate(ctx, "gauge", "rev 2", "fields: [1]\n"))
	row, err = s.GetTemplate(ctx, "gauge")
	require.NoError(t, err)
	require.Equal(t, "rev 2", row.Description)

	rows, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestGetTemplateNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetTemplate(context.Background(), "absent")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertInstrumentDerivesNextDue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertInstrument(ctx, Instrument{
		TagNumber:       "PG-1041",
		Description:     "line pressure gauge",
		LastCalDate:     "2026-02-15",
		FrequencyMonths: 6,
	}))

	inst, err := s.GetInstrument(ctx, "PG-1041")
	require.NoError(t, err)
	require.Equal(t, "2026-08-15", inst.NextDueDate)
	require.Equal(t, "ACTIVE", inst.Status)

	// Same tag number updates in place.
	require.NoError(t, s.UpsertInstrument(ctx, Instrument{
		TagNumber:   "PG-1041",
		Description: "line pressure gauge (relocated)",
		LastCalDate: "2026-02-15",
		NextDueDate: "2026-09-01",
	}))
	inst, err = s.GetInstrument(ctx, "PG-1041")
	require.NoError(t, err)
	require.Equal(t, "2026-09-01", inst.NextDueDate)

	rows, err := s.ListInstruments(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDueListings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)

	seed := []Instrument{
		{TagNumber: "A-1", NextDueDate: "2026-08-01"},
		{TagNumber: "B-2", NextDueDate: "2026-09-10"},
		{TagNumber: "C-3", NextDueDate: "2027-01-01"},
		{TagNumber: "D-4", NextDueDate: "2026-08-01", Status: "RETIRED"},
	}
	for _, inst := range seed {
		require.NoError(t, s.UpsertInstrument(ctx, inst))
	}

	overdue, err := s.ListOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, "A-1", overdue[0].TagNumber)

	soon, err := s.ListDueSoon(ctx, asOf, 30)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	require.Equal(t, "B-2", soon[0].TagNumber)
}

func TestSaveRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertInstrument(ctx, Instrument{
		TagNumber:       "PG-1041",
		FrequencyMonths: 12,
	}))

	computed := 1.3
	result := &model.RecordResult{
		Template: "gauge",
		Fields: []model.FieldResult{
			{Group: "Point 1", Name: "as_found", Label: "As Found", Value: "101.5",
				Bound: 2, Status: model.StatusPass, Explanation: "within tolerance"},
			{Group: "Point 1", Name: "drift", Label: "Drift", Value: "1.3",
				Computed: &computed, Status: model.StatusSkipped},
			{Group: "Point 1", Name: "as_left", Label: "As Left",
				Status: model.StatusError, Err: errors.New("no reading entered")},
		},
	}

	performedAt := time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC)
	recordID, err := s.SaveRecord(ctx, "PG-1041", performedAt, "R. Vega", result)
	require.NoError(t, err)
	require.Positive(t, recordID)

	records, err := s.ListRecords(ctx, "PG-1041")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "gauge", records[0].TemplateName)
	require.Equal(t, 1, records[0].Passed)
	require.Equal(t, 1, records[0].Errored)
	require.False(t, records[0].Complete)

	results, err := s.ListResults(ctx, recordID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "as_found", results[0].FieldName)
	require.True(t, results[1].Computed.Valid)
	require.Equal(t, 1.3, results[1].Computed.Float64)
	require.Equal(t, "no reading entered", results[2].Err)

	// Saving a record rolls the instrument's dates forward.
	inst, err := s.GetInstrument(ctx, "PG-1041")
	require.NoError(t, err)
	require.Equal(t, "2026-08-12", inst.LastCalDate)
	require.Equal(t, "2027-08-12", inst.NextDueDate)
}

func TestSaveRecordUnknownInstrument(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveRecord(context.Background(), "ghost",
		time.Now(), "", &model.RecordResult{Template: "gauge"})
	require.True(t, errors.Is(err, ErrNotFound))
}
