package ingest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bitcoinCSV = `SNo,Name,Symbol,Date,High,Low,Open,Close,Volume,Marketcap
1,Bitcoin,BTC,2013-04-29 23:59:59,147.48,134.0,134.44,144.54,0.0,1603768864.5
2,Bitcoin,BTC,2013-04-30 23:59:59,146.93,134.05,144.0,139.0,0.0,1542813125.0
`

func TestReadCSV(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(bitcoinCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, int64(1), recs[0].SNo)
	assert.Equal(t, "BTC", recs[0].Symbol)
	assert.Equal(t, "2013-04-29 23:59:59", recs[0].Date.Format(DateLayout))
	assert.InDelta(t, 144.54, recs[0].Close, 1e-9)
	assert.InDelta(t, 1542813125.0, recs[1].Marketcap, 1e-6)
}

func TestReadCSV_ReorderedHeader(t *testing.T) {
	in := "Close,Date,SNo,Name,Symbol,High,Low,Open,Volume,Marketcap\n" +
		"10.5,2021-01-01,7,Ethereum,ETH,11,9,10,100,1000\n"
	recs, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(7), recs[0].SNo)
	assert.InDelta(t, 10.5, recs[0].Close, 1e-9)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("SNo,Name\n1,Bitcoin\n"))
	assert.ErrorContains(t, err, "missing column")

	bad := "SNo,Name,Symbol,Date,High,Low,Open,Close,Volume,Marketcap\n" +
		"1,Bitcoin,BTC,yesterday,1,1,1,1,1,1\n"
	_, err = ReadCSV(strings.NewReader(bad))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestDir(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "coin_Bitcoin.csv"), []byte(bitcoinCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "coin_Dogecoin.csv"),
		[]byte(strings.ReplaceAll(bitcoinCSV, "Bitcoin,BTC", "Dogecoin,DOGE")), 0o644))

	results, err := Dir(context.Background(), Config{SourceDir: src, DataDir: dst})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byTable := map[string]Result{}
	for _, r := range results {
		byTable[r.Table] = r
	}
	assert.True(t, byTable["BITCOIN"].Registered)
	assert.False(t, byTable["DOGECOIN"].Registered)
	assert.Equal(t, filepath.Join(dst, "bitcoin.db"), byTable["BITCOIN"].DBPath)

	db, err := sql.Open("sqlite3", byTable["BITCOIN"].DBPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	var date string
	require.NoError(t, db.QueryRow(`SELECT COUNT(*), MAX(Date) FROM BITCOIN`).Scan(&n, &date))
	assert.Equal(t, 2, n)
	assert.Equal(t, "2013-04-30 23:59:59", date)
}

func TestWriteDB_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ethereum.db")
	recs, err := ReadCSV(strings.NewReader(bitcoinCSV))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, WriteDB(ctx, path, "ETHEREUM", recs))
	require.NoError(t, WriteDB(ctx, path, "ETHEREUM", recs[:1]))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM ETHEREUM`).Scan(&n))
	assert.Equal(t, 1, n)
}
