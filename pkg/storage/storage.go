package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/sw33tLie/contestlog/pkg/contest"
	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/session"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05Z"

type DB struct {
	sql *sql.DB
	log logrus.FieldLogger
}

func Open(path string, log logrus.FieldLogger) (*DB, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS qsos (
  id          INTEGER PRIMARY KEY,
  qso_at      TEXT NOT NULL,
  contest_id  TEXT NOT NULL DEFAULT '',
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_qsos_time ON qsos(qso_at, id);
CREATE INDEX IF NOT EXISTS idx_qsos_contest ON qsos(contest_id, qso_at);
CREATE TABLE IF NOT EXISTS qso_fields (
  qso_id  INTEGER NOT NULL REFERENCES qsos(id) ON DELETE CASCADE,
  name    TEXT NOT NULL,
  value   TEXT NOT NULL,
  PRIMARY KEY (qso_id, name)
);
CREATE TABLE IF NOT EXISTS contests (
  id              INTEGER PRIMARY KEY,
  contest_id      TEXT NOT NULL,
  instance_index  TEXT NOT NULL,
  algorithm_id    TEXT NOT NULL,
  start_at        TEXT NOT NULL,
  finish_at       TEXT NOT NULL,
  UNIQUE(contest_id, instance_index)
);
CREATE TABLE IF NOT EXISTS session_state (
  id              INTEGER PRIMARY KEY CHECK (id = 1),
  contest_id      TEXT NOT NULL,
  instance_index  TEXT NOT NULL,
  active          INTEGER NOT NULL CHECK (active IN (0,1)),
  next_serial     INTEGER NOT NULL
);
    `); err != nil {
		return nil, err
	}
	log.WithField("path", path).Debug("Opened database")
	return &DB{sql: db, log: log}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Book is the log book loaded from the database, in chronological order.
type Book struct {
	*logbook.Memory
	ids []int64
}

// ID returns the database id of the i-th record.
func (b *Book) ID(i int) int64 {
	return b.ids[i]
}

// Append adds a stored record to the in-memory book and returns its index.
func (b *Book) Append(id int64, rec logbook.Record) int {
	b.ids = append(b.ids, id)
	return b.Memory.Append(rec)
}

// AddQSO stores a record. QSO_DATE and TIME_ON must be valid.
func (d *DB) AddQSO(ctx context.Context, f logbook.Fields) (id int64, err error) {
	at, err := logbook.Timestamp(f)
	if err != nil {
		return 0, err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO qsos(qso_at, contest_id) VALUES(?, ?)`, at.UTC().Format(timeLayout), f.Item(logbook.FieldContestID))
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err = insertFields(ctx, tx, id, f); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateQSO replaces every field of the stored record id.
func (d *DB) UpdateQSO(ctx context.Context, id int64, f logbook.Fields) (err error) {
	at, err := logbook.Timestamp(f)
	if err != nil {
		return err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE qsos SET qso_at = ?, contest_id = ? WHERE id = ?`, at.UTC().Format(timeLayout), f.Item(logbook.FieldContestID), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = fmt.Errorf("qso %d: %w", id, ErrNotFound)
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM qso_fields WHERE qso_id = ?`, id); err != nil {
		return err
	}
	if err = insertFields(ctx, tx, id, f); err != nil {
		return err
	}
	return tx.Commit()
}

// GetQSO returns the stored fields of record id.
func (d *DB) GetQSO(ctx context.Context, id int64) (logbook.Fields, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT f.name, f.value
FROM qsos q LEFT JOIN qso_fields f ON f.qso_id = q.id
WHERE q.id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var f logbook.Fields
	for rows.Next() {
		var name, value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		if f == nil {
			f = logbook.Fields{}
		}
		if name.Valid {
			f[name.String] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("qso %d: %w", id, ErrNotFound)
	}
	return f, nil
}

func insertFields(ctx context.Context, tx *sql.Tx, id int64, f logbook.Fields) error {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if f[name] == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO qso_fields(qso_id, name, value) VALUES(?,?,?)`, id, name, f[name]); err != nil {
			return err
		}
	}
	return nil
}

// LoadBook reads the whole log book ordered by QSO time.
func (d *DB) LoadBook(ctx context.Context) (*Book, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT q.id, f.name, f.value
FROM qsos q LEFT JOIN qso_fields f ON f.qso_id = q.id
ORDER BY q.qso_at, q.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	book := &Book{Memory: logbook.NewMemory()}
	var current logbook.Fields
	lastID := int64(-1)
	for rows.Next() {
		var (
			id          int64
			name, value sql.NullString
		)
		if err := rows.Scan(&id, &name, &value); err != nil {
			return nil, err
		}
		if id != lastID {
			current = logbook.Fields{}
			book.Append(id, current)
			lastID = id
		}
		if name.Valid {
			current[name.String] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return book, nil
}

// SaveCatalog replaces the stored catalog, keeping its enumeration order.
func (d *DB) SaveCatalog(ctx context.Context, c *contest.Catalog) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM contests`); err != nil {
		return err
	}
	for i := 0; i < c.Len(); i++ {
		e, _ := c.EntryAt(i)
		tf := e.Definition.Timeframe
		_, err = tx.ExecContext(ctx, `INSERT INTO contests(id, contest_id, instance_index, algorithm_id, start_at, finish_at) VALUES(?,?,?,?,?,?)`,
			i+1, e.ContestID, e.Instance, e.Definition.AlgorithmID, tf.Start.UTC().Format(timeLayout), tf.Finish.UTC().Format(timeLayout))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCatalog reads the stored catalog. Rows with an unusable timeframe are
// skipped with a warning.
func (d *DB) LoadCatalog(ctx context.Context) (*contest.Catalog, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT contest_id, instance_index, algorithm_id, start_at, finish_at FROM contests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c := contest.NewCatalog()
	for rows.Next() {
		var id, index, algorithm, startStr, finishStr string
		if err := rows.Scan(&id, &index, &algorithm, &startStr, &finishStr); err != nil {
			return nil, err
		}
		def := contest.Definition{AlgorithmID: algorithm}
		var perr error
		def.Timeframe.Start, perr = time.Parse(timeLayout, startStr)
		if perr == nil {
			def.Timeframe.Finish, perr = time.Parse(timeLayout, finishStr)
		}
		if perr == nil {
			perr = def.Validate()
		}
		if perr != nil {
			d.log.WithError(perr).WithFields(logrus.Fields{"contest": id, "instance": index}).Warn("Skipping stored contest")
			continue
		}
		stored, ok := c.Get(id, index, true)
		if !ok {
			continue
		}
		*stored = def
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveSessionState records the state a session leaves behind.
func (d *DB) SaveSessionState(ctx context.Context, st session.State) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO session_state(id, contest_id, instance_index, active, next_serial) VALUES(1,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET contest_id = excluded.contest_id, instance_index = excluded.instance_index,
  active = excluded.active, next_serial = excluded.next_serial`,
		st.ContestID, st.Instance, boolToInt(st.Active), st.NextSerial)
	return err
}

// LoadSessionState returns the last saved state, or the zero State.
func (d *DB) LoadSessionState(ctx context.Context) (session.State, error) {
	var (
		st     session.State
		active int
	)
	err := d.sql.QueryRowContext(ctx, `SELECT contest_id, instance_index, active, next_serial FROM session_state WHERE id = 1`).
		Scan(&st.ContestID, &st.Instance, &active, &st.NextSerial)
	if errors.Is(err, sql.ErrNoRows) {
		return session.State{}, nil
	}
	if err != nil {
		return session.State{}, err
	}
	st.Active = active == 1
	return st, nil
}

type ContestStats struct {
	ContestID string
	QSOCount  int
	First     time.Time
	Last      time.Time
}

// GetStats counts QSOs per contest id; QSOs outside any contest have an empty id.
func (d *DB) GetStats(ctx context.Context) ([]ContestStats, error) {
	query := `
		SELECT
			contest_id,
			COUNT(*),
			MIN(qso_at),
			MAX(qso_at)
		FROM
			qsos
		GROUP BY
			contest_id
		ORDER BY
			contest_id;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ContestStats
	for rows.Next() {
		var s ContestStats
		var first, last string
		if err := rows.Scan(&s.ContestID, &s.QSOCount, &first, &last); err != nil {
			return nil, err
		}
		s.First, _ = time.Parse(timeLayout, first)
		s.Last, _ = time.Parse(timeLayout, last)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
