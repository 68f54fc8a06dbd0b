package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caltrack/caltrack/internal/domain/schedule"
	"github.com/caltrack/caltrack/internal/store"
)

func seedDueDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "caltrack.sqlite")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	today := time.Now()
	ctx := context.Background()
	seed := []store.Instrument{
		{TagNumber: "OVER-1", Description: "flow meter",
			NextDueDate: today.AddDate(0, 0, -10).Format(schedule.DateLayout)},
		{TagNumber: "SOON-2",
			NextDueDate: today.AddDate(0, 0, 10).Format(schedule.DateLayout)},
		{TagNumber: "LATER-3",
			NextDueDate: today.AddDate(1, 0, 0).Format(schedule.DateLayout)},
	}
	for _, inst := range seed {
		require.NoError(t, s.UpsertInstrument(ctx, inst))
	}
	return dbPath
}

func TestDueCommandListsOverdueAndDueSoon(t *testing.T) {
	dbPath := seedDueDB(t)

	output, err := runCLI(t, "due", "--db", dbPath)
	require.NoError(t, err)
	require.Contains(t, output, "Overdue")
	require.Contains(t, output, "OVER-1")
	require.Contains(t, output, "10 days overdue")
	require.Contains(t, output, "flow meter")
	require.Contains(t, output, "SOON-2")
	require.NotContains(t, output, "LATER-3")
}

func TestDueCommandAllListsEverything(t *testing.T) {
	dbPath := seedDueDB(t)

	output, err := runCLI(t, "due", "--db", dbPath, "--all")
	require.NoError(t, err)
	require.Contains(t, output, "OVER-1")
	require.Contains(t, output, "SOON-2")
	require.Contains(t, output, "LATER-3")
}

func TestDueCommandEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.sqlite")

	output, err := runCLI(t, "due", "--db", dbPath, "--days", "14")
	require.NoError(t, err)
	require.Contains(t, output, "Nothing due within 14 days")
}
