// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: store.go — sqlite ledger of bridge exchanges
//
// Purpose:
//   - One row per exchange round, one row per non-zero ghost progress report.
//   - Runs are keyed by a random id and tied to the device configuration
//     fingerprint so ledgers from different device images never mix.
//   - Audit sums each ghost's reports for conservation checks.
//
// Notes:
//   - Rows are buffered in one transaction and committed every flushEvery
//     rounds; Record never blocks on fsync.
//   - Record cannot return errors (wrapper.Recorder); the first failure is
//     kept and surfaced by Flush/Close.
// ─────────────────────────────────────────────────────────────────────────────

package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"fpgabridge/constants"
	"fpgabridge/debug"
	"fpgabridge/wrapper"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	config      TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS rounds (
	run_id      TEXT NOT NULL,
	round       INTEGER NOT NULL,
	bank        INTEGER NOT NULL,
	time        INTEGER NOT NULL,
	has_data    INTEGER NOT NULL,
	records_in  INTEGER NOT NULL,
	records_out INTEGER NOT NULL,
	latency_ns  INTEGER NOT NULL,
	PRIMARY KEY (run_id, round)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS ghost_progress (
	run_id         TEXT NOT NULL,
	round          INTEGER NOT NULL,
	ghost          INTEGER NOT NULL,
	consumed       INTEGER NOT NULL,
	produced       INTEGER NOT NULL,
	internal_time  INTEGER NOT NULL,
	internal_delta INTEGER NOT NULL,
	PRIMARY KEY (run_id, round, ghost)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS epochs (
	run_id     TEXT NOT NULL,
	epoch      INTEGER NOT NULL,
	latency_ns INTEGER NOT NULL,
	PRIMARY KEY (run_id, epoch)
) WITHOUT ROWID;
`

var ErrNoRun = errors.New("trace: no run started")

// Store is a trace ledger. Not safe for concurrent use; see Async.
type Store struct {
	db  *sql.DB
	run string

	tx            *sql.Tx
	roundStmt     *sql.Stmt
	progressStmt  *sql.Stmt
	pending       int
	flushEvery    int
	err           error
	reportedError bool
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: ping %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := configureDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: schema: %w", err)
	}
	return &Store{db: db, flushEvery: constants.TraceFlushRounds}, nil
}

func configureDatabase(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = 20000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("trace: %s: %w", p, err)
		}
	}
	return nil
}

// SetFlushEvery changes how many rounds share one transaction.
func (s *Store) SetFlushEvery(n int) {
	if n <= 0 {
		n = 1
	}
	s.flushEvery = n
}

// BeginRun registers a new run and makes it current.
func (s *Store) BeginRun(fingerprint string, config []byte) (string, error) {
	if err := s.Flush(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs (run_id, fingerprint, config, started_at) VALUES (?, ?, ?, ?)`,
		id, fingerprint, string(config), time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("trace: begin run: %w", err)
	}
	s.run = id
	return id, nil
}

// Run is the current run id.
func (s *Store) Run() string { return s.run }

// EndRun flushes and stamps the current run finished.
func (s *Store) EndRun() error {
	if s.run == "" {
		return ErrNoRun
	}
	if err := s.Flush(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE runs SET finished_at = ? WHERE run_id = ?`, time.Now().UnixNano(), s.run)
	if err != nil {
		return fmt.Errorf("trace: end run: %w", err)
	}
	return nil
}

// Record implements wrapper.Recorder.
func (s *Store) Record(r *wrapper.Round) {
	if s.err != nil {
		return
	}
	if s.run == "" {
		s.fail(ErrNoRun)
		return
	}
	if s.tx == nil && !s.begin() {
		return
	}
	if _, err := s.roundStmt.Exec(s.run, r.Round, r.Bank, r.Time, r.HasData, r.RecordsIn, r.RecordsOut, r.Latency.Nanoseconds()); err != nil {
		s.fail(fmt.Errorf("trace: round %d: %w", r.Round, err))
		return
	}
	for i, q := range r.Quads {
		if q.IsZero() {
			continue
		}
		if _, err := s.progressStmt.Exec(s.run, r.Round, r.Ghosts[i], q.Consumed, q.Produced, q.InternalTime, q.InternalDelta); err != nil {
			s.fail(fmt.Errorf("trace: round %d ghost %d: %w", r.Round, r.Ghosts[i], err))
			return
		}
	}
	if s.pending++; s.pending >= s.flushEvery {
		s.commit()
	}
}

// RecordEpoch stores one epoch's end-to-end latency.
func (s *Store) RecordEpoch(epoch uint64, latency time.Duration) error {
	if s.run == "" {
		return ErrNoRun
	}
	_, err := s.db.Exec(`INSERT INTO epochs (run_id, epoch, latency_ns) VALUES (?, ?, ?)`, s.run, epoch, latency.Nanoseconds())
	if err != nil {
		return fmt.Errorf("trace: epoch %d: %w", epoch, err)
	}
	return nil
}

func (s *Store) begin() bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.fail(fmt.Errorf("trace: begin: %w", err))
		return false
	}
	rs, err := tx.Prepare(`INSERT INTO rounds (run_id, round, bank, time, has_data, records_in, records_out, latency_ns) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		s.fail(fmt.Errorf("trace: prepare rounds: %w", err))
		return false
	}
	ps, err := tx.Prepare(`INSERT INTO ghost_progress (run_id, round, ghost, consumed, produced, internal_time, internal_delta) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		rs.Close()
		tx.Rollback()
		s.fail(fmt.Errorf("trace: prepare ghost_progress: %w", err))
		return false
	}
	s.tx, s.roundStmt, s.progressStmt = tx, rs, ps
	return true
}

func (s *Store) commit() {
	if s.tx == nil {
		return
	}
	s.roundStmt.Close()
	s.progressStmt.Close()
	if err := s.tx.Commit(); err != nil {
		s.fail(fmt.Errorf("trace: commit: %w", err))
	}
	s.tx, s.roundStmt, s.progressStmt = nil, nil, nil
	s.pending = 0
}

func (s *Store) fail(err error) {
	if s.err == nil {
		s.err = err
	}
	if !s.reportedError {
		s.reportedError = true
		debug.DropError("TRACE", err)
	}
	if s.tx != nil {
		s.roundStmt.Close()
		s.progressStmt.Close()
		s.tx.Rollback()
		s.tx, s.roundStmt, s.progressStmt = nil, nil, nil
	}
}

// Flush commits buffered rows and returns the first recording error.
func (s *Store) Flush() error {
	s.commit()
	return s.err
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	err := s.Flush()
	if cerr := s.db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("trace: close: %w", cerr)
	}
	return err
}
