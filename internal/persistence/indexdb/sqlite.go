package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"railforge/internal/sim/world"
)

// SQLiteIndex is the queryable index of processed commands. Writes go
// through a single writer goroutine; the JSONL audit log remains the source
// of truth if the indexer falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqCommand reqKind = iota + 1
	reqSession
)

type req struct {
	kind reqKind

	cmd     world.CommandLogEntry
	session sessionRow
}

type sessionRow struct {
	ID       string
	Name     string
	JoinedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: long drags can burst many gestures without stalling the world loop.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			joined_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			seq INTEGER PRIMARY KEY,
			session TEXT NOT NULL,
			op TEXT NOT NULL,
			from_x INTEGER NOT NULL,
			from_y INTEGER NOT NULL,
			to_x INTEGER NOT NULL,
			to_y INTEGER NOT NULL,
			track TEXT NOT NULL,
			rail_type TEXT NOT NULL,
			params INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT,
			cost INTEGER NOT NULL,
			end_x INTEGER NOT NULL,
			end_y INTEGER NOT NULL,
			end_valid INTEGER NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_session_seq ON commands(session, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_pos ON commands(from_x, from_y);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) InsertCommand(entry world.CommandLogEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqCommand, cmd: entry}:
	default:
		// Drop if the indexer falls behind; the JSONL log keeps everything.
	}
}

func (s *SQLiteIndex) UpsertSession(id, name string, joinedAt time.Time) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSession, session: sessionRow{ID: id, Name: name, JoinedAt: joinedAt.UTC().Format(time.RFC3339)}}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(seq,session,op,from_x,from_y,to_x,to_y,track,rail_type,params,ok,code,cost,end_x,end_y,end_valid,at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSession, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(id,name,joined_at) VALUES(?,?,?)`)
	defer func() {
		if insertCommand != nil {
			_ = insertCommand.Close()
		}
		if insertSession != nil {
			_ = insertSession.Close()
		}
	}()

	for r := range s.ch {
		switch r.kind {
		case reqCommand:
			if insertCommand == nil {
				continue
			}
			_, _ = insertCommand.Exec(
				r.cmd.Seq, r.cmd.Session, r.cmd.Op,
				r.cmd.FromX, r.cmd.FromY, r.cmd.ToX, r.cmd.ToY,
				r.cmd.Track, r.cmd.RailType, r.cmd.Params,
				boolInt(r.cmd.OK), r.cmd.Code, r.cmd.Cost,
				r.cmd.EndX, r.cmd.EndY, boolInt(r.cmd.EndValid), r.cmd.At,
			)
		case reqSession:
			if insertSession == nil {
				continue
			}
			_, _ = insertSession.Exec(r.session.ID, r.session.Name, r.session.JoinedAt)
		}
	}
}

// Flush waits until everything queued so far has been written. Intended for
// tests and shutdown paths.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	for len(s.ch) > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	// One more beat for the entry the writer may be holding.
	time.Sleep(10 * time.Millisecond)
}

// RecentCommands returns the latest commands of a session, newest first.
func (s *SQLiteIndex) RecentCommands(ctx context.Context, session string, limit int) ([]world.CommandLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq,session,op,from_x,from_y,to_x,to_y,track,rail_type,params,ok,code,cost,end_x,end_y,end_valid,at
		FROM commands WHERE session = ? ORDER BY seq DESC LIMIT ?`, session, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.CommandLogEntry
	for rows.Next() {
		var e world.CommandLogEntry
		var ok, endValid int
		var code sql.NullString
		if err := rows.Scan(
			&e.Seq, &e.Session, &e.Op,
			&e.FromX, &e.FromY, &e.ToX, &e.ToY,
			&e.Track, &e.RailType, &e.Params,
			&ok, &code, &e.Cost,
			&e.EndX, &e.EndY, &endValid, &e.At,
		); err != nil {
			return nil, err
		}
		e.OK = ok != 0
		e.EndValid = endValid != 0
		e.Code = code.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
