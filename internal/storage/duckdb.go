package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/phone"
)

type DuckDBRepo struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Repository = (*DuckDBRepo)(nil)

// NewDuckDBRepo opens the archive at path. An empty path is an in-memory
// database.
func NewDuckDBRepo(path string, logger *slog.Logger) (*DuckDBRepo, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	return &DuckDBRepo{db: db, logger: logger, now: time.Now}, nil
}

func (r *DuckDBRepo) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS leads (
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		phone TEXT,
		phone_e164 TEXT,
		latitude DOUBLE,
		longitude DOUBLE,
		category TEXT,
		state TEXT,
		municipality TEXT,
		neighborhood TEXT,
		profile_link TEXT,
		created_at TIMESTAMP,
		PRIMARY KEY (run_id, source, name, address)
	);`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// SaveRun stores one search result set and reports how many rows were new.
// Saving the same run twice refreshes phone and link instead of duplicating.
func (r *DuckDBRepo) SaveRun(ctx context.Context, runID string, q model.Query, leads []model.Lead) (int, error) {
	if strings.TrimSpace(runID) == "" {
		return 0, apperr.Validation("run id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	const exists = `SELECT EXISTS(SELECT 1 FROM leads WHERE run_id = ? AND source = ? AND name = ? AND address = ?)`
	const upsert = `
	INSERT INTO leads (run_id, source, name, address, phone, phone_e164, latitude, longitude, category, state, municipality, neighborhood, profile_link, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (run_id, source, name, address) DO UPDATE SET
		phone = COALESCE(EXCLUDED.phone, leads.phone),
		phone_e164 = COALESCE(EXCLUDED.phone_e164, leads.phone_e164),
		profile_link = EXCLUDED.profile_link;`

	created := r.now()

	inserted := 0
	for _, l := range leads {
		var found bool
		if err := tx.QueryRowContext(ctx, exists, runID, l.Source.String(), l.Name, l.Address).Scan(&found); err != nil {
			return 0, fmt.Errorf("check %q: %w", l.Name, err)
		}

		_, err := tx.ExecContext(ctx, upsert,
			runID, l.Source.String(), l.Name, l.Address,
			nullable(l.Phone), nullable(e164(l.Phone)),
			l.Latitude, l.Longitude, l.Category,
			q.State, q.Municipality, nullable(q.Neighborhood),
			nullable(l.ProfileLink), created)
		if err != nil {
			return 0, fmt.Errorf("save %q: %w", l.Name, err)
		}
		if !found {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	r.logger.Info("Run archived", "run_id", runID, "leads", len(leads), "new", inserted)
	return inserted, nil
}

func (r *DuckDBRepo) ListLeads(ctx context.Context, f Filter) ([]model.Lead, error) {
	clause, args := f.params()
	query := fmt.Sprintf(`
		SELECT name, address, phone, latitude, longitude, category, source, profile_link
		FROM leads
		WHERE %s
		ORDER BY created_at ASC, name ASC`, clause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var (
			name, address, category, source string
			phoneNum, link                  sql.NullString
			lat, lng                        sql.NullFloat64
		)
		if err := rows.Scan(&name, &address, &phoneNum, &lat, &lng, &category, &source, &link); err != nil {
			return nil, err
		}
		leads = append(leads, model.NewLead(model.LeadParams{
			Name:        name,
			Address:     address,
			Phone:       phoneNum.String,
			Latitude:    lat.Float64,
			Longitude:   lng.Float64,
			Category:    category,
			Source:      model.Source(source),
			ProfileLink: link.String,
		}))
	}
	return leads, rows.Err()
}

func (r *DuckDBRepo) ExportCSV(ctx context.Context, path string, f Filter) error {
	query := fmt.Sprintf(`
		COPY (
			SELECT run_id, source, name, address, phone, phone_e164, latitude, longitude, category, state, municipality, neighborhood, profile_link, created_at
			FROM leads
			WHERE %s
			ORDER BY created_at ASC, name ASC
		) TO %s (HEADER, DELIMITER ',');`, f.literals(), quote(path))

	_, err := r.db.ExecContext(ctx, query)
	return err
}

// DeleteByFilter refuses an empty filter so a typo cannot wipe the archive.
func (r *DuckDBRepo) DeleteByFilter(ctx context.Context, f Filter) (int64, error) {
	if f.IsEmpty() {
		return 0, apperr.Validation("no filters provided")
	}
	clause, args := f.params()
	res, err := r.db.ExecContext(ctx, "DELETE FROM leads WHERE "+clause, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DuckDBRepo) Close() error {
	return r.db.Close()
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// e164 falls back to bare digits for numbers phonenumbers rejects, e.g. the
// short local numbers pulled out of page descriptions.
func e164(raw string) string {
	if raw == "" {
		return ""
	}
	if !phone.IsValid(raw) {
		return phone.Digits(raw)
	}
	return phone.NormalizeE164(raw)
}
