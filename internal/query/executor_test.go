package query

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aman-zulfiqar/coinquery/internal/ingest"
	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBitcoinFixture(t *testing.T, dir string) {
	t.Helper()
	base := time.Date(2021, 1, 1, 23, 59, 59, 0, time.UTC)
	recs := []ingest.Record{
		{SNo: 1, Name: "Bitcoin", Symbol: "BTC", Date: base, Close: 29374.15, High: 29600, Low: 28803, Open: 28994},
		{SNo: 2, Name: "Bitcoin", Symbol: "BTC", Date: base.AddDate(0, 0, 1), Close: 32127.27, High: 33155, Low: 29091, Open: 29376},
	}
	require.NoError(t, ingest.WriteDB(context.Background(), filepath.Join(dir, "bitcoin.db"), "BITCOIN", recs))
}

func TestExecute_Literal(t *testing.T) {
	ex := NewExecutor(ExecutorConfig{DataDir: t.TempDir()})

	rs, err := ex.Execute(context.Background(), "SELECT 42 AS answer")
	require.NoError(t, err)
	assert.Equal(t, []string{"answer"}, rs.Columns)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int64(42), rs.Rows[0][0])
}

func TestExecute_InvalidSQL(t *testing.T) {
	ex := NewExecutor(ExecutorConfig{DataDir: t.TempDir()})

	rs, err := ex.Execute(context.Background(), "SELEC 1")
	assert.Nil(t, rs)

	var qerr *QueryExecutionError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "SELEC 1", qerr.SQL)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestExecute_UnknownTable(t *testing.T) {
	ex := NewExecutor(ExecutorConfig{DataDir: t.TempDir()})

	_, err := ex.Execute(context.Background(), "SELECT * FROM coin_bitcoin.NOPE")
	var qerr *QueryExecutionError
	require.ErrorAs(t, err, &qerr)
	assert.Contains(t, qerr.Err.Error(), "no such table")
}

func TestExecute_Empty(t *testing.T) {
	ex := NewExecutor(ExecutorConfig{DataDir: t.TempDir()})
	_, err := ex.Execute(context.Background(), "  ")
	var qerr *QueryExecutionError
	assert.ErrorAs(t, err, &qerr)
}

func TestExecute_AttachedFixture(t *testing.T) {
	dir := t.TempDir()
	writeBitcoinFixture(t, dir)
	ex := NewExecutor(ExecutorConfig{DataDir: dir})

	rs, err := ex.Execute(context.Background(),
		"SELECT 'Bitcoin' AS Source, Date, Close FROM coin_bitcoin.BITCOIN\nORDER BY Date ASC")
	require.NoError(t, err)
	assert.Equal(t, []string{"Source", "Date", "Close"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "Bitcoin", rs.Rows[0][0])
	assert.Equal(t, "2021-01-01 23:59:59", rs.Rows[0][1])
	assert.InDelta(t, 32127.27, rs.Rows[1][2], 1e-6)
}

func TestExecute_EmptyResultKeepsColumns(t *testing.T) {
	dir := t.TempDir()
	writeBitcoinFixture(t, dir)
	ex := NewExecutor(ExecutorConfig{DataDir: dir})

	rs, err := ex.Execute(context.Background(), "SELECT Close FROM coin_bitcoin.BITCOIN WHERE 1=0")
	require.NoError(t, err)
	assert.Equal(t, []string{"Close"}, rs.Columns)
	assert.NotNil(t, rs.Rows)
	assert.Empty(t, rs.Rows)
}

func TestExecute_FreshAttachmentsPerCall(t *testing.T) {
	ex := NewExecutor(ExecutorConfig{DataDir: t.TempDir()})
	stmt := "SELECT name FROM pragma_database_list WHERE name LIKE 'coin_%' ORDER BY seq"

	for i := 0; i < 2; i++ {
		rs, err := ex.Execute(context.Background(), stmt)
		require.NoError(t, err, "call %d", i)
		require.Len(t, rs.Rows, 4)
		assert.Equal(t, "coin_bitcoin", rs.Rows[0][0])
		assert.Equal(t, "coin_usdcoin", rs.Rows[3][0])
	}
}

func newMockExecutor(t *testing.T, dir string) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	ex := NewExecutor(ExecutorConfig{
		DataDir: dir,
		Open:    func() (*sql.DB, error) { return db, nil },
	})
	for _, e := range schema.Default().Entries() {
		mock.ExpectExec(AttachStatement(filepath.Join(dir, schema.DataFile(e.Alias)), e.Alias)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	return ex, mock
}

func TestExecute_MockAttachesAndReleasesOnError(t *testing.T) {
	dir := t.TempDir()
	ex, mock := newMockExecutor(t, dir)

	mock.ExpectQuery("SELECT * FROM coin_bitcoin.GONE").WillReturnError(errors.New("no such table: coin_bitcoin.GONE"))
	mock.ExpectClose()

	rs, err := ex.Execute(context.Background(), "SELECT * FROM coin_bitcoin.GONE")
	assert.Nil(t, rs)
	assert.ErrorContains(t, err, "no such table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_MockDecodesBytes(t *testing.T) {
	dir := t.TempDir()
	ex, mock := newMockExecutor(t, dir)

	rows := sqlmock.NewRows([]string{"Source", "Close"}).
		AddRow([]byte("Bitcoin"), 29374.15).
		AddRow([]byte("Ethereum"), nil)
	mock.ExpectQuery("SELECT Source, Close FROM x").WillReturnRows(rows)
	mock.ExpectClose()

	rs, err := ex.Execute(context.Background(), "SELECT Source, Close FROM x")
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "Bitcoin", rs.Rows[0][0])
	assert.Nil(t, rs.Rows[1][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachStatement_Escapes(t *testing.T) {
	assert.Equal(t, "ATTACH DATABASE '/tmp/o''brien/bitcoin.db' AS coin_bitcoin",
		AttachStatement("/tmp/o'brien/bitcoin.db", "coin_bitcoin"))
}
