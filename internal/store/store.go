// Package store persists instruments, templates and calibration records
// in an embedded sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/caltrack/caltrack/internal/domain/schedule"
	"github.com/caltrack/caltrack/internal/model"
	caltrackerrors "github.com/caltrack/caltrack/pkg/errors"
)

// Store wraps the sqlite handle. sqlite is happiest with a single writer,
// so the pool is pinned to one connection.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, caltrackerrors.NewStoreError("open", err)
	}
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	db := sqlx.NewDb(conn, "sqlite3")
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, caltrackerrors.NewStoreError("migrate", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Instrument is a tracked device with its calibration cadence.
type Instrument struct {
	ID              int64  `db:"instrument_id"`
	TagNumber       string `db:"tag_number"`
	Description     string `db:"description"`
	LastCalDate     string `db:"last_cal_date"`
	NextDueDate     string `db:"next_due_date"`
	FrequencyMonths int    `db:"frequency_months"`
	Status          string `db:"status"`
	Notes           string `db:"notes"`
	CreatedAt       string `db:"created_at"`
}

// TemplateRow is a stored template document: the YAML source is kept
// verbatim so the exact authored form round-trips.
type TemplateRow struct {
	ID          int64  `db:"template_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Source      string `db:"source"`
	CreatedAt   string `db:"created_at"`
}

// RecordRow is one completed calibration session.
type RecordRow struct {
	ID           int64  `db:"record_id"`
	InstrumentID int64  `db:"instrument_id"`
	TemplateName string `db:"template_name"`
	PerformedAt  string `db:"performed_at"`
	Technician   string `db:"technician"`
	Passed       int    `db:"passed"`
	Failed       int    `db:"failed"`
	Errored      int    `db:"errored"`
	Complete     bool   `db:"complete"`
}

// ResultRow is one field outcome within a record.
type ResultRow struct {
	ID          int64           `db:"result_id"`
	RecordID    int64           `db:"record_id"`
	GroupName   string          `db:"group_name"`
	FieldName   string          `db:"field_name"`
	Label       string          `db:"label"`
	Value       string          `db:"value"`
	Computed    sql.NullFloat64 `db:"computed"`
	Bound       float64         `db:"bound"`
	Status      string          `db:"status"`
	Explanation string          `db:"explanation"`
	Caution     string          `db:"caution"`
	Err         string          `db:"err"`
}

// ErrNotFound reports a lookup that matched no row.
var ErrNotFound = errors.New("not found")

// SaveTemplate inserts or replaces a template document by name.
func (s *Store) SaveTemplate(ctx context.Context, name, description, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates(name, description, source) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET description = excluded.description, source = excluded.source`,
		name, description, source)
	if err != nil {
		return caltrackerrors.NewStoreError("save template", err)
	}
	return nil
}

// GetTemplate fetches a stored template by name.
func (s *Store) GetTemplate(ctx context.Context, name string) (TemplateRow, error) {
	var row TemplateRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM templates WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateRow{}, caltrackerrors.NewStoreError("get template", ErrNotFound)
	}
	if err != nil {
		return TemplateRow{}, caltrackerrors.NewStoreError("get template", err)
	}
	return row, nil
}

// ListTemplates returns all stored templates in name order.
func (s *Store) ListTemplates(ctx context.Context) ([]TemplateRow, error) {
	var rows []TemplateRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM templates ORDER BY name`); err != nil {
		return nil, caltrackerrors.NewStoreError("list templates", err)
	}
	return rows, nil
}

// UpsertInstrument inserts an instrument or updates the existing row with
// the same tag number. An empty next-due date is derived from the last
// calibration date and frequency.
func (s *Store) UpsertInstrument(ctx context.Context, inst Instrument) error {
	if inst.FrequencyMonths <= 0 {
		inst.FrequencyMonths = schedule.DefaultFrequencyMonths
	}
	if inst.Status == "" {
		inst.Status = "ACTIVE"
	}
	if inst.NextDueDate == "" && inst.LastCalDate != "" {
		lastCal, err := time.Parse(schedule.DateLayout, inst.LastCalDate)
		if err != nil {
			return caltrackerrors.NewStoreError("upsert instrument", err)
		}
		inst.NextDueDate = schedule.NextDue(lastCal, inst.FrequencyMonths).Format(schedule.DateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instruments(tag_number, description, last_cal_date, next_due_date, frequency_months, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tag_number) DO UPDATE SET
			description      = excluded.description,
			last_cal_date    = excluded.last_cal_date,
			next_due_date    = excluded.next_due_date,
			frequency_months = excluded.frequency_months,
			status           = excluded.status,
			notes            = excluded.notes`,
		inst.TagNumber, inst.Description, inst.LastCalDate, inst.NextDueDate,
		inst.FrequencyMonths, inst.Status, inst.Notes)
	if err != nil {
		return caltrackerrors.NewStoreError("upsert instrument", err)
	}
	return nil
}

// GetInstrument fetches an instrument by tag number.
func (s *Store) GetInstrument(ctx context.Context, tagNumber string) (Instrument, error) {
	var inst Instrument
	err := s.db.GetContext(ctx, &inst, `SELECT * FROM instruments WHERE tag_number = ?`, tagNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return Instrument{}, caltrackerrors.NewStoreError("get instrument", ErrNotFound)
	}
	if err != nil {
		return Instrument{}, caltrackerrors.NewStoreError("get instrument", err)
	}
	return inst, nil
}

// ListInstruments returns all instruments ordered by next due date.
func (s *Store) ListInstruments(ctx context.Context) ([]Instrument, error) {
	var rows []Instrument
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM instruments ORDER BY date(next_due_date), tag_number`)
	if err != nil {
		return nil, caltrackerrors.NewStoreError("list instruments", err)
	}
	return rows, nil
}

// ListOverdue returns active instruments whose next due date has passed
// as of asOf.
func (s *Store) ListOverdue(ctx context.Context, asOf time.Time) ([]Instrument, error) {
	var rows []Instrument
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM instruments
		WHERE status = 'ACTIVE'
		  AND next_due_date <> ''
		  AND date(next_due_date) < date(?)
		ORDER BY date(next_due_date), tag_number`,
		asOf.Format(schedule.DateLayout))
	if err != nil {
		return nil, caltrackerrors.NewStoreError("list overdue", err)
	}
	return rows, nil
}

// ListDueSoon returns active instruments due within days of asOf,
// inclusive on both ends.
func (s *Store) ListDueSoon(ctx context.Context, asOf time.Time, days int) ([]Instrument, error) {
	if days <= 0 {
		days = schedule.DefaultDueSoonDays
	}
	upper := asOf.AddDate(0, 0, days)
	var rows []Instrument
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM instruments
		WHERE status = 'ACTIVE'
		  AND next_due_date <> ''
		  AND date(next_due_date) >= date(?)
		  AND date(next_due_date) <= date(?)
		ORDER BY date(next_due_date), tag_number`,
		asOf.Format(schedule.DateLayout), upper.Format(schedule.DateLayout))
	if err != nil {
		return nil, caltrackerrors.NewStoreError("list due soon", err)
	}
	return rows, nil
}

// SaveRecord persists an evaluated record with its per-field results and
// rolls the instrument's calibration dates forward. The whole write is one
// transaction.
func (s *Store) SaveRecord(ctx context.Context, tagNumber string, performedAt time.Time, technician string, result *model.RecordResult) (int64, error) {
	inst, err := s.GetInstrument(ctx, tagNumber)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, caltrackerrors.NewStoreError("save record", err)
	}
	defer func() { _ = tx.Rollback() }()

	passed, failed, errored, _ := result.Counts()
	r, err := tx.ExecContext(ctx, `
		INSERT INTO records(instrument_id, template_name, performed_at, technician, passed, failed, errored, complete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, result.Template, performedAt.Format(schedule.DateLayout), technician,
		passed, failed, errored, result.Complete())
	if err != nil {
		return 0, caltrackerrors.NewStoreError("save record", err)
	}
	recordID, err := r.LastInsertId()
	if err != nil {
		return 0, caltrackerrors.NewStoreError("save record", err)
	}

	for _, fr := range result.Fields {
		var errText string
		if fr.Err != nil {
			errText = fr.Err.Error()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO record_results(record_id, group_name, field_name, label, value, computed, bound, status, explanation, caution, err)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			recordID, fr.Group, fr.Name, fr.Label, fr.Value,
			nullFloat(fr.Computed), fr.Bound,
			fr.Status, fr.Explanation, fr.Caution, errText)
		if err != nil {
			return 0, caltrackerrors.NewStoreError("save record", err)
		}
	}

	lastCal := performedAt
	nextDue := schedule.NextDue(lastCal, inst.FrequencyMonths)
	_, err = tx.ExecContext(ctx,
		`UPDATE instruments SET last_cal_date = ?, next_due_date = ? WHERE instrument_id = ?`,
		lastCal.Format(schedule.DateLayout), nextDue.Format(schedule.DateLayout), inst.ID)
	if err != nil {
		return 0, caltrackerrors.NewStoreError("save record", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, caltrackerrors.NewStoreError("save record", err)
	}
	return recordID, nil
}

// ListRecords returns the calibration history for an instrument, newest
// first.
func (s *Store) ListRecords(ctx context.Context, tagNumber string) ([]RecordRow, error) {
	inst, err := s.GetInstrument(ctx, tagNumber)
	if err != nil {
		return nil, err
	}
	var rows []RecordRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT * FROM records WHERE instrument_id = ?
		ORDER BY date(performed_at) DESC, record_id DESC`, inst.ID)
	if err != nil {
		return nil, caltrackerrors.NewStoreError("list records", err)
	}
	return rows, nil
}

// ListResults returns the per-field outcomes for a record.
func (s *Store) ListResults(ctx context.Context, recordID int64) ([]ResultRow, error) {
	var rows []ResultRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM record_results WHERE record_id = ? ORDER BY result_id`, recordID)
	if err != nil {
		return nil, caltrackerrors.NewStoreError("list results", err)
	}
	return rows, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
