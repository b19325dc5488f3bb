package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheet-dash/internal/dataset"
)

var sheets = []dataset.Sheet{
	{ID: "sheet1", Identifier: "jan"},
	{ID: "sheet2", Identifier: "Apr-Data"},
	{ID: "sheet3", Identifier: "x; drop table y"},
}

func TestTableName(t *testing.T) {
	r := NewOriginalReader(nil, "Clients 2025", sheets)

	name, err := r.TableName("sheet1")
	require.NoError(t, err)
	assert.Equal(t, "clients_2025_jan_original", name)

	name, err = r.TableName("sheet2")
	require.NoError(t, err)
	assert.Equal(t, "clients_2025_apr_data_original", name)

	_, err = r.TableName("sheet3")
	assert.Error(t, err)
	_, err = r.TableName("missing")
	assert.Error(t, err)
}

// Set SHEET_DASH_TEST_DATABASE_URL to run against a scratch database.
func TestOriginalReaderPostgres(t *testing.T) {
	url := os.Getenv("SHEET_DASH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SHEET_DASH_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	r := NewOriginalReader(db, "sheetdash_test", sheets[:1])
	table, err := r.TableName("sheet1")
	require.NoError(t, err)
	_, _ = db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table)
	defer db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table)

	exists, err := r.OriginalExists(ctx, "sheet1")
	require.NoError(t, err)
	assert.False(t, exists, "missing table is not persisted")

	_, err = db.ExecContext(ctx, `CREATE TABLE `+table+` (
		id SERIAL PRIMARY KEY,
		original_row_number INTEGER,
		row_id TEXT,
		firstname TEXT,
		birthday TEXT,
		birthmonth TEXT,
		birthyear TEXT
	)`)
	require.NoError(t, err)

	exists, err = r.OriginalExists(ctx, "sheet1")
	require.NoError(t, err)
	assert.False(t, exists, "empty table is not persisted")

	for i := 1; i <= 250; i++ {
		_, err = db.ExecContext(ctx, `INSERT INTO `+table+` (original_row_number, row_id, firstname, birthday, birthmonth, birthyear)
			VALUES ($1, $2, $3, NULL, '1', '1990')`, i, fmt.Sprintf("r%d", i), fmt.Sprintf("name%d", i))
		require.NoError(t, err)
	}
	exists, err = r.OriginalExists(ctx, "sheet1")
	require.NoError(t, err)
	assert.True(t, exists)

	page, err := r.FetchPersistedOriginal(ctx, "sheet1", 3, 100)
	require.NoError(t, err)
	assert.Equal(t, 250, page.TotalRecords)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Rows, 50)
	assert.Equal(t, "201", page.Rows[0]["original_row_number"])
	assert.Equal(t, "", page.Rows[0]["birthday"])
}
