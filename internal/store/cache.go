// Package store provides SQLite-backed persistence for parsed record sets
// and processed-file status.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed record caching and job tracking.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Dataset fingerprints a cached record set.
type Dataset struct {
	MtimeNs   int64
	SizeBytes int64
	Year      int
	FetchedAt time.Time
}

// GetDataset returns the fingerprint stored for source, if any.
func (c *Cache) GetDataset(source string) (Dataset, bool, error) {
	var ds Dataset
	var fetched string
	err := c.db.QueryRow(`SELECT mtime_ns, size_bytes, reference_year, fetched_at
		FROM datasets WHERE source = ?`, source).
		Scan(&ds.MtimeNs, &ds.SizeBytes, &ds.Year, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return ds, false, nil
	}
	if err != nil {
		return ds, false, err
	}
	ds.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return ds, true, nil
}

// SaveDataset replaces the cached records of source in one transaction.
func (c *Cache) SaveDataset(source string, ds Dataset, records []model.TransactionRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	fetched := ds.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	if _, err := tx.Exec("DELETE FROM transactions WHERE source = ?", source); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO datasets
		(source, mtime_ns, size_bytes, reference_year, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		source, ds.MtimeNs, ds.SizeBytes, ds.Year, fetched.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO transactions
		(source, seq, date, day, date_valid, agency, pax_usd, sales_usd, pax_npr, sales_npr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		valid := 0
		if r.DateValid {
			valid = 1
		}
		_, err = stmt.Exec(source, i, r.Date, r.Day.UTC().Format(time.RFC3339), valid, r.Agency,
			r.PaxUSD.String(), r.SalesUSD.String(), r.PaxNPR.String(), r.SalesNPR.String())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadRecords reads the cached records of source in their original order.
func (c *Cache) LoadRecords(source string) ([]model.TransactionRecord, error) {
	rows, err := c.db.Query(`SELECT date, day, date_valid, agency, pax_usd, sales_usd, pax_npr, sales_npr
		FROM transactions WHERE source = ? ORDER BY seq`, source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []model.TransactionRecord
	for rows.Next() {
		var r model.TransactionRecord
		var day string
		var valid int
		var paxUSD, salesUSD, paxNPR, salesNPR string
		if err := rows.Scan(&r.Date, &day, &valid, &r.Agency, &paxUSD, &salesUSD, &paxNPR, &salesNPR); err != nil {
			return nil, err
		}
		r.Day, _ = time.Parse(time.RFC3339, day)
		r.Day = r.Day.UTC()
		r.DateValid = valid != 0
		r.PaxUSD = parseDecimal(paxUSD)
		r.SalesUSD = parseDecimal(salesUSD)
		r.PaxNPR = parseDecimal(paxNPR)
		r.SalesNPR = parseDecimal(salesNPR)
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteDataset removes a cached record set.
func (c *Cache) DeleteDataset(source string) error {
	_, err := c.db.Exec("DELETE FROM datasets WHERE source = ?", source)
	return err
}

// RecordCount returns the number of cached records across all sources.
func (c *Cache) RecordCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
