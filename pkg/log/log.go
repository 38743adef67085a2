// Package log provides the package-wide zerolog logger. By default it
// discards everything; binaries call SetStd for console output or Init to
// persist JSON log lines in an SQLite database.
package log

import (
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"pearson-go/pkg/appdir"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

var (
	written    atomic.Int64
	pkgLogger  = zerolog.Nop()
	store      *dbWriter
	mu         sync.RWMutex
	// timeFormat is fixed width and always UTC, so stored time fields sort
	// lexically in time order.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
	now        = time.Now

	// ErrNotInitialized is returned by the retrieval functions before Init.
	ErrNotInitialized = errors.New("log: logger not initialized, call log.Init() first")
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
    log_data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_json_time ON logs (json_extract(log_data, '$.time'));
CREATE INDEX IF NOT EXISTS idx_logs_json_level ON logs (json_extract(log_data, '$.level'));`

// dbWriter is an io.Writer storing one zerolog line per row.
type dbWriter struct {
	db   *sql.DB
	stmt *sql.Stmt
	mu   sync.Mutex
}

func openDBWriter(dsn string) (*dbWriter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db %s: %w", dsn, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db %s: %w", dsn, err)
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create logs table: %w", err)
	}
	stmt, err := db.Prepare(`INSERT INTO logs (log_data) VALUES (?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	return &dbWriter{db: db, stmt: stmt}, nil
}

func (w *dbWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.stmt.Exec(string(p)); err != nil {
		stdlog.Printf("ERROR writing log to SQLite: %v", err)
		return 0, err
	}
	written.Add(1)
	return len(p), nil
}

func (w *dbWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.stmt.Close(), w.db.Close())
}

// SetStd sends human-readable logs to stderr at the given level.
func SetStd(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	pkgLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Init opens (or creates) the SQLite log database dbFile, resolved against
// the application directory when relative, and routes logging to it.
func Init(dbFile string) error {
	if dbFile == "" {
		return fmt.Errorf("logger needs an explicit dbFile")
	}
	path, err := appdir.Path(dbFile)
	if err != nil {
		return err
	}
	return initDSN(fmt.Sprintf("%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", path))
}

func initDSN(dsn string) error {
	mu.Lock()
	defer mu.Unlock()

	if store != nil {
		return fmt.Errorf("logger already initialized")
	}
	w, err := openDBWriter(dsn)
	if err != nil {
		return fmt.Errorf("failed to create SQLite writer: %w", err)
	}
	store = w
	written.Store(0)

	zerolog.TimeFieldFormat = timeFormat
	zerolog.TimestampFunc = func() time.Time { return now().UTC() }
	pkgLogger = zerolog.New(store).With().Timestamp().Logger()
	return nil
}

// Close detaches the SQLite writer and reverts to the no-op logger.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if store == nil {
		return nil
	}
	w := store
	store = nil
	pkgLogger = zerolog.Nop()

	if err := w.close(); err != nil {
		return fmt.Errorf("error closing SQLite logger: %w", err)
	}
	return nil
}

func logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := pkgLogger
	return &l
}

func Debug() *zerolog.Event { return logger().Debug() }
func Info() *zerolog.Event  { return logger().Info() }
func Warn() *zerolog.Event  { return logger().Warn() }
func Error() *zerolog.Event { return logger().Error() }

// Printf sends a log event using info level and no extra field.
// Arguments are handled in the manner of fmt.Printf.
func Printf(format string, v ...any) {
	logger().Info().CallerSkipFrame(1).Msgf(format, v...)
}
