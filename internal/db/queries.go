package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mkvoss/tweakstash/internal/errors"
	"github.com/mkvoss/tweakstash/internal/history"
	"github.com/mkvoss/tweakstash/internal/tweak"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries can run inside or
// outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.StashError{
	Code:    errors.ErrConflict,
	Status:  409,
	Message: "unique constraint violation",
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Catalog

// UpsertCategory inserts or updates a category row.
func UpsertCategory(ctx context.Context, q DBTX, c *tweak.Category) error {
	query := `
		INSERT INTO categories (id, name, icon, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			position = excluded.position
	`
	_, err := q.ExecContext(ctx, query, c.ID, c.Name, toNullString(c.Icon), c.Position)
	if err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}

// InsertTweak stores a new tweak, failing on id collision.
func InsertTweak(ctx context.Context, q DBTX, t *tweak.Tweak) error {
	query := `
		INSERT INTO tweaks (
			id, category_id, title, description, code, comment,
			download_count, favorite_count, report_count, is_visible,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		t.ID, t.CategoryID, t.Title, toNullString(t.Description),
		toNullString(t.Code), toNullString(t.Comment),
		t.DownloadCount, t.FavoriteCount, toNullInt64(t.ReportCount),
		boolToInt(t.IsVisible), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewPersistence(err)
	}
	return nil
}

// UpsertTweak inserts or replaces a tweak's catalog fields. Counters are
// preserved on replace: re-ingesting a seed file must not reset usage data.
func UpsertTweak(ctx context.Context, q DBTX, t *tweak.Tweak) error {
	query := `
		INSERT INTO tweaks (
			id, category_id, title, description, code, comment,
			download_count, favorite_count, report_count, is_visible,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			title = excluded.title,
			description = excluded.description,
			code = excluded.code,
			comment = excluded.comment,
			report_count = excluded.report_count,
			is_visible = excluded.is_visible,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		t.ID, t.CategoryID, t.Title, toNullString(t.Description),
		toNullString(t.Code), toNullString(t.Comment),
		t.DownloadCount, t.FavoriteCount, toNullInt64(t.ReportCount),
		boolToInt(t.IsVisible), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}

const tweakColumns = `id, category_id, title, description, code, comment,
	download_count, favorite_count, report_count, is_visible, created_at, updated_at`

// GetTweakByID retrieves a single tweak.
func GetTweakByID(ctx context.Context, q DBTX, id string) (*tweak.Tweak, error) {
	row := q.QueryRowContext(ctx, `SELECT `+tweakColumns+` FROM tweaks WHERE id = ?`, id)
	t, err := scanTweak(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewPersistence(err)
	}
	return t, nil
}

// GetTweaksByIDs retrieves tweaks in exactly the order of the given ids.
// Any missing id fails the whole lookup with NOT_FOUND.
func GetTweaksByIDs(ctx context.Context, q DBTX, ids []string) ([]tweak.Tweak, error) {
	out := make([]tweak.Tweak, 0, len(ids))
	for _, id := range ids {
		t, err := GetTweakByID(ctx, q, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// ListCategories returns all categories ordered by position, then name.
func ListCategories(ctx context.Context, q DBTX) ([]tweak.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, icon, position FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, errors.NewPersistence(err)
	}
	defer rows.Close()

	var out []tweak.Category
	for rows.Next() {
		var c tweak.Category
		var icon sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &icon, &c.Position); err != nil {
			return nil, errors.NewPersistence(err)
		}
		c.Icon = fromNullString(icon)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistence(err)
	}
	return out, nil
}

// ListTweaks returns tweak summaries, optionally filtered by category.
// Hidden tweaks are excluded unless includeHidden is set.
func ListTweaks(ctx context.Context, q DBTX, categoryID *string, includeHidden bool, limit, offset int) ([]tweak.Summary, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if categoryID != nil {
		where += " AND category_id = ?"
		args = append(args, *categoryID)
	}
	if !includeHidden {
		where += " AND is_visible = 1"
	}

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tweaks`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewPersistence(err)
	}

	query := `
		SELECT id, category_id, title, description, download_count,
			favorite_count, report_count, is_visible, updated_at
		FROM tweaks` + where + `
		ORDER BY title
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewPersistence(err)
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// TopDownloads returns the most-downloaded visible tweaks.
func TopDownloads(ctx context.Context, q DBTX, limit int) ([]tweak.Summary, error) {
	query := `
		SELECT id, category_id, title, description, download_count,
			favorite_count, report_count, is_visible, updated_at
		FROM tweaks
		WHERE is_visible = 1
		ORDER BY download_count DESC, title
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.NewPersistence(err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// Totals aggregates catalog-wide counts for stats reporting.
type Totals struct {
	Tweaks    int
	Downloads int64
}

// DownloadTotals returns the visible tweak count and the sum of all
// download counters.
func DownloadTotals(ctx context.Context, q DBTX) (*Totals, error) {
	var t Totals
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(download_count), 0) FROM tweaks WHERE is_visible = 1`,
	).Scan(&t.Tweaks, &t.Downloads)
	if err != nil {
		return nil, errors.NewPersistence(err)
	}
	return &t, nil
}

// Usage counter

// IncrementDownloads atomically bumps one tweak's download counter at the
// store. This is a store-side increment, not a client read-modify-write, so
// concurrent exporters never lose updates.
func IncrementDownloads(ctx context.Context, q DBTX, id string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE tweaks SET download_count = download_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	if err != nil {
		return errors.NewPersistence(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewPersistence(err)
	}
	if affected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// History

// HistoryRow is a raw history record as stored; the selection payload is
// decoded by the caller so one corrupt row cannot abort a batch scan.
type HistoryRow struct {
	ID            string
	UserID        string
	Name          *string
	SelectionJSON string
	IsFavorite    bool
	CreatedAt     int64
}

// InsertHistory stores a new history entry.
func InsertHistory(ctx context.Context, q DBTX, e *history.Entry, selectionJSON string) error {
	query := `
		INSERT INTO history (id, user_id, name, selection_json, is_favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		e.ID, e.UserID, toNullString(e.Name), selectionJSON,
		boolToInt(e.IsFavorite), e.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewPersistence(err)
	}
	return nil
}

// HistoryRowsForUser returns a user's history newest first. Entries with
// equal timestamps come back latest-inserted first (rowid tie-break), keeping
// the ordering stable at second resolution.
func HistoryRowsForUser(ctx context.Context, q DBTX, userID string, limit, offset int) ([]HistoryRow, int, error) {
	var total int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, errors.NewPersistence(err)
	}

	query := `
		SELECT id, user_id, name, selection_json, is_favorite, created_at
		FROM history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`
	rows, err := q.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.NewPersistence(err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		var name sql.NullString
		var fav int
		if err := rows.Scan(&r.ID, &r.UserID, &name, &r.SelectionJSON, &fav, &r.CreatedAt); err != nil {
			return nil, 0, errors.NewPersistence(err)
		}
		r.Name = fromNullString(name)
		r.IsFavorite = fav != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewPersistence(err)
	}
	return out, total, nil
}

// Scan helpers

// scanTweak scans a single row into a Tweak struct.
func scanTweak(row *sql.Row) (*tweak.Tweak, error) {
	var (
		t           tweak.Tweak
		description sql.NullString
		code        sql.NullString
		comment     sql.NullString
		reportCount sql.NullInt64
		visible     int
	)

	err := row.Scan(
		&t.ID, &t.CategoryID, &t.Title, &description, &code, &comment,
		&t.DownloadCount, &t.FavoriteCount, &reportCount, &visible,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = fromNullString(description)
	t.Code = fromNullString(code)
	t.Comment = fromNullString(comment)
	t.IsVisible = visible != 0
	if reportCount.Valid {
		t.ReportCount = &reportCount.Int64
	}

	return &t, nil
}

// scanSummaries scans summary rows from a browse query.
func scanSummaries(rows *sql.Rows) ([]tweak.Summary, error) {
	var out []tweak.Summary
	for rows.Next() {
		var (
			s           tweak.Summary
			description sql.NullString
			reportCount sql.NullInt64
			visible     int
		)
		if err := rows.Scan(
			&s.ID, &s.CategoryID, &s.Title, &description, &s.DownloadCount,
			&s.FavoriteCount, &reportCount, &visible, &s.UpdatedAt,
		); err != nil {
			return nil, errors.NewPersistence(err)
		}
		s.Description = fromNullString(description)
		s.IsVisible = visible != 0
		if reportCount.Valid {
			s.ReportCount = &reportCount.Int64
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistence(err)
	}
	return out, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

// boolToInt converts a bool to its sqlite integer form.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
