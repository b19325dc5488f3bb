package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sheet-dash/internal/dataset"
)

var identPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// OriginalReader reads the original rows a cleaning run persisted to Postgres.
// Tables are named <base>_<identifier>_original.
type OriginalReader struct {
	db          *sqlx.DB
	baseTable   string
	identifiers map[dataset.SheetID]string
}

// Open connects to databaseURL with the lib/pq driver.
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func NewOriginalReader(db *sqlx.DB, baseTable string, sheets []dataset.Sheet) *OriginalReader {
	ids := make(map[dataset.SheetID]string, len(sheets))
	for _, s := range sheets {
		ids[s.ID] = s.Identifier
	}
	return &OriginalReader{db: db, baseTable: baseTable, identifiers: ids}
}

func (r *OriginalReader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// TableName returns the persisted-original table for sheet.
func (r *OriginalReader) TableName(sheet dataset.SheetID) (string, error) {
	ident, ok := r.identifiers[sheet]
	if !ok || ident == "" {
		return "", fmt.Errorf("no identifier configured for sheet %s", sheet)
	}
	name := safeName(r.baseTable) + "_" + safeName(ident) + "_original"
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return name, nil
}

func safeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// OriginalExists reports whether the table exists and holds at least one row.
func (r *OriginalReader) OriginalExists(ctx context.Context, sheet dataset.SheetID) (bool, error) {
	table, err := r.TableName(sheet)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT to_regclass($1) IS NOT NULL`, table); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	if !exists {
		return false, nil
	}
	n, err := r.count(ctx, table)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *OriginalReader) count(ctx context.Context, table string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + pq.QuoteIdentifier(table)
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("failed to count records in %s: %w", table, err)
	}
	return n, nil
}

type originalRecord struct {
	OriginalRowNumber string `db:"original_row_number"`
	RowID             string `db:"row_id"`
	Firstname         string `db:"firstname"`
	Birthday          string `db:"birthday"`
	Birthmonth        string `db:"birthmonth"`
	Birthyear         string `db:"birthyear"`
}

func (o originalRecord) row() dataset.Row {
	return dataset.Row{
		"original_row_number": o.OriginalRowNumber,
		"row_id":              o.RowID,
		"firstname":           o.Firstname,
		"birthday":            o.Birthday,
		"birthmonth":          o.Birthmonth,
		"birthyear":           o.Birthyear,
	}
}

// FetchPersistedOriginal reads one 1-based page ordered by id.
func (r *OriginalReader) FetchPersistedOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error) {
	if page < 1 || pageSize < 1 {
		return dataset.Page{}, fmt.Errorf("invalid page %d of size %d", page, pageSize)
	}
	table, err := r.TableName(sheet)
	if err != nil {
		return dataset.Page{}, err
	}
	total, err := r.count(ctx, table)
	if err != nil {
		return dataset.Page{}, err
	}

	query := `SELECT
		COALESCE(original_row_number::text, '') AS original_row_number,
		COALESCE(row_id::text, '') AS row_id,
		COALESCE(firstname::text, '') AS firstname,
		COALESCE(birthday::text, '') AS birthday,
		COALESCE(birthmonth::text, '') AS birthmonth,
		COALESCE(birthyear::text, '') AS birthyear
	FROM ` + pq.QuoteIdentifier(table) + `
	ORDER BY id
	LIMIT $1 OFFSET $2`

	var records []originalRecord
	if err := r.db.SelectContext(ctx, &records, query, pageSize, (page-1)*pageSize); err != nil {
		return dataset.Page{}, fmt.Errorf("failed to fetch records from %s: %w", table, err)
	}
	rows := make([]dataset.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.row())
	}
	return dataset.Page{
		Rows:         rows,
		Columns:      dataset.Columns(dataset.ViewOriginal),
		TotalRecords: total,
		TotalPages:   dataset.PageCount(total, pageSize),
	}, nil
}
