// Package ingest loads coin_<Name>.csv price histories into the per-coin
// SQLite files the query executor attaches.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/schema"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// DateLayout is how Date values are stored; every source row carries the
// 23:59:59 close-of-day time.
const DateLayout = "2006-01-02 15:04:05"

var dateLayouts = []string{DateLayout, "2006-01-02", time.RFC3339}

// Record is one daily price row.
type Record struct {
	SNo       int64
	Name      string
	Symbol    string
	Date      time.Time
	High      float64
	Low       float64
	Open      float64
	Close     float64
	Volume    float64
	Marketcap float64
}

// Result reports one ingested file.
type Result struct {
	Source string
	DBPath string
	Table  string
	Rows   int
	// Registered is false when the coin has no registry alias; the file is
	// still written but queries cannot reach it until one is added.
	Registered bool
}

// Config holds configuration for Dir.
type Config struct {
	SourceDir string
	DataDir   string
	Registry  *schema.Registry
	Logger    *logrus.Logger
}

// Dir ingests every coin_*.csv in cfg.SourceDir.
func Dir(ctx context.Context, cfg Config) ([]Result, error) {
	if cfg.Registry == nil {
		cfg.Registry = schema.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfg.SourceDir
	}

	paths, err := filepath.Glob(filepath.Join(cfg.SourceDir, "coin_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob csv files: %w", err)
	}

	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		coin := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), "coin_"), ".csv")
		alias := schema.AliasForCoin(coin)
		table := strings.ToUpper(coin)
		_, registered := cfg.Registry.Resolve(alias)

		recs, err := readFile(p)
		if err != nil {
			return results, err
		}

		dbPath := filepath.Join(cfg.DataDir, schema.DataFile(alias))
		if err := WriteDB(ctx, dbPath, table, recs); err != nil {
			return results, err
		}

		entry := cfg.Logger.WithFields(logrus.Fields{
			"source": p,
			"db":     dbPath,
			"table":  table,
			"rows":   len(recs),
		})
		if !registered {
			entry.Warn("ingested coin has no registry alias")
		} else {
			entry.Info("ingested coin history")
		}

		results = append(results, Result{
			Source:     p,
			DBPath:     dbPath,
			Table:      table,
			Rows:       len(recs),
			Registered: registered,
		})
	}
	return results, nil
}

func readFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, nil
}

// ReadCSV parses a price history with a header row. Column order is free;
// names match schema.Columns case-insensitively.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range schema.Columns {
		if _, ok := idx[strings.ToLower(c)]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, idx map[string]int) (Record, error) {
	get := func(col string) string { return strings.TrimSpace(row[idx[col]]) }

	var rec Record
	var err error
	if rec.SNo, err = strconv.ParseInt(get("sno"), 10, 64); err != nil {
		return rec, fmt.Errorf("SNo: %w", err)
	}
	rec.Name = get("name")
	rec.Symbol = get("symbol")
	if rec.Date, err = parseDate(get("date")); err != nil {
		return rec, err
	}

	floats := []struct {
		col string
		dst *float64
	}{
		{"high", &rec.High}, {"low", &rec.Low}, {"open", &rec.Open},
		{"close", &rec.Close}, {"volume", &rec.Volume}, {"marketcap", &rec.Marketcap},
	}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(get(f.col), 64); err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// WriteDB replaces table in the SQLite file at path with recs.
func WriteDB(ctx context.Context, path, table string, recs []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ddl := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, table),
		fmt.Sprintf(`CREATE TABLE "%s" (
			SNo INTEGER, Name TEXT, Symbol TEXT, Date TEXT,
			High REAL, Low REAL, Open REAL, Close REAL, Volume REAL, Marketcap REAL
		)`, table),
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}

	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO "%s" (SNo, Name, Symbol, Date, High, Low, Open, Close, Volume, Marketcap)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()

	for _, r := range recs {
		if _, err := ins.ExecContext(ctx,
			r.SNo, r.Name, r.Symbol, r.Date.Format(DateLayout),
			r.High, r.Low, r.Open, r.Close, r.Volume, r.Marketcap,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", r.SNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
