// Package dedup keeps an SQLite index of 64-bit Pearson keys, counting how
// often each message has been observed. Distinct messages may share a key;
// callers needing certainty must compare the messages themselves.
package dedup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pearson-go/pkg/log"
	"pearson-go/pkg/pearson"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("dedup: key not found")

const schema = `
CREATE TABLE IF NOT EXISTS keys (
    hash INTEGER PRIMARY KEY,
    seen INTEGER NOT NULL,
    first_seen INTEGER NOT NULL,
    last_seen INTEGER NOT NULL,
    sample BLOB
);
CREATE INDEX IF NOT EXISTS idx_keys_seen ON keys (seen);`

// Entry is one indexed key.
type Entry struct {
	Key       uint64
	Count     int64
	FirstSeen time.Time
	LastSeen  time.Time
	// Sample holds up to SampleSize leading bytes of the first message seen.
	Sample []byte
}

// Duplicate reports whether the key was observed more than once.
func (e Entry) Duplicate() bool { return e.Count > 1 }

// SampleSize caps the message prefix stored alongside each key.
const SampleSize = 32

// Index is safe for concurrent use.
type Index struct {
	db    *sql.DB
	table pearson.Table
	now   func() time.Time
}

// Open opens or creates the index stored at path.
func Open(path string) (*Index, error) {
	return open(fmt.Sprintf("%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", path), 0)
}

// OpenMemory returns an index that lives only as long as the process.
func OpenMemory() (*Index, error) {
	return open(":memory:", 1)
}

func open(dsn string, maxConns int) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("dedup: open %s: %w", dsn, err)
	}
	if maxConns > 0 {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(maxConns)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup: create schema: %w", err)
	}
	return &Index{db: db, table: pearson.DefaultTable(), now: time.Now}, nil
}

// WithTable makes the index key messages with t instead of the default table.
// It must be called before the first Observe.
func (ix *Index) WithTable(t pearson.Table) *Index {
	ix.table = t
	return ix
}

// Key returns the index key for message.
func (ix *Index) Key(message []byte) (uint64, error) {
	return ix.table.Hash64(message)
}

// Observe records one occurrence of message and returns the updated entry.
func (ix *Index) Observe(ctx context.Context, message []byte) (Entry, error) {
	key, err := ix.Key(message)
	if err != nil {
		return Entry{}, err
	}
	sample := message[:min(len(message), SampleSize)]
	now := ix.now().UnixNano()

	row := ix.db.QueryRowContext(ctx, `
        INSERT INTO keys (hash, seen, first_seen, last_seen, sample) VALUES (?, 1, ?, ?, ?)
        ON CONFLICT(hash) DO UPDATE SET seen = seen + 1, last_seen = excluded.last_seen
        RETURNING hash, seen, first_seen, last_seen, sample`,
		int64(key), now, now, sample)
	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("dedup: observe %#016x: %w", key, err)
	}
	if e.Duplicate() {
		log.Debug().Uint64("key", key).Int64("count", e.Count).Msg("dedup: duplicate key")
	}
	return e, nil
}

// Lookup returns the entry for key, or ErrNotFound.
func (ix *Index) Lookup(ctx context.Context, key uint64) (Entry, error) {
	row := ix.db.QueryRowContext(ctx,
		`SELECT hash, seen, first_seen, last_seen, sample FROM keys WHERE hash = ?`, int64(key))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %#016x", ErrNotFound, key)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("dedup: lookup %#016x: %w", key, err)
	}
	return e, nil
}

// Duplicates returns keys observed more than once, most frequent first,
// ties broken by ascending unsigned key. A limit <= 0 returns all of them.
func (ix *Index) Duplicates(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := ix.db.QueryContext(ctx, `
        SELECT hash, seen, first_seen, last_seen, sample FROM keys
        WHERE seen > 1 ORDER BY seen DESC, hash < 0 ASC, hash ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("dedup: query duplicates: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("dedup: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats returns the number of distinct keys and total observations.
func (ix *Index) Stats(ctx context.Context) (keys, observations int64, err error) {
	err = ix.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(seen), 0) FROM keys`).Scan(&keys, &observations)
	if err != nil {
		err = fmt.Errorf("dedup: stats: %w", err)
	}
	return keys, observations, err
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e           Entry
		key         int64
		first, last int64
	)
	if err := s.Scan(&key, &e.Count, &first, &last, &e.Sample); err != nil {
		return Entry{}, err
	}
	e.Key = uint64(key)
	e.FirstSeen = time.Unix(0, first)
	e.LastSeen = time.Unix(0, last)
	return e, nil
}
