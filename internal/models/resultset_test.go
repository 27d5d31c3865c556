package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultSet_Unescaped(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"Name", "Close"},
		Rows:    [][]any{{"Bitcoin &amp; friends", 1.5}, {nil, int64(2)}},
	}

	out := rs.Unescaped()
	assert.Equal(t, "Bitcoin & friends", out.Rows[0][0])
	assert.Equal(t, 1.5, out.Rows[0][1])
	assert.Nil(t, out.Rows[1][0])

	// original untouched
	assert.Equal(t, "Bitcoin &amp; friends", rs.Rows[0][0])
}

func TestResultSet_ColumnLookup(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"Source", "Date", "Close"},
		Rows:    [][]any{{"Bitcoin", "2021-01-01 23:59:59", 29374.15}},
	}
	assert.Equal(t, 1, rs.ColumnIndex("Date"))
	assert.Equal(t, -1, rs.ColumnIndex("date"))
	assert.Equal(t, []any{29374.15}, rs.Column(2))
}

func TestDisplayValue(t *testing.T) {
	ts := time.Date(2021, 1, 1, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2021-01-01 23:59:59", DisplayValue(ts))
	assert.Equal(t, "NULL", DisplayValue(nil))
	assert.Equal(t, "x", DisplayValue([]byte("x")))
	assert.Equal(t, int64(3), DisplayValue(int64(3)))
}

func TestDisplayString(t *testing.T) {
	assert.Equal(t, "NULL", DisplayString(nil))
	assert.Equal(t, "1.5", DisplayString(1.5))
	assert.Equal(t, "Bitcoin", DisplayString([]byte("Bitcoin")))
}
