// Package journal keeps an append-only SQLite log of labeling sessions and
// the decisions applied to them, so a session can be replayed later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/agenthands/clustercheck/internal/core/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionInfo describes how a session was started.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Trust     int       `json:"trust"`
	Seed      uint64    `json:"seed"`
	Source    string    `json:"source"`
}

// Entry is one applied decision and the potency it was answered at.
type Entry struct {
	SessionID string         `json:"session_id"`
	Seq       int            `json:"seq"`
	Decision  model.Decision `json:"decision"`
	Potency   int            `json:"potency"`
	CreatedAt time.Time      `json:"created_at"`
}

type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the journal at path. ":memory:" gives a private
// in-memory journal.
func New(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, logger: logger}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	logger.Debug("journal opened", zap.String("path", path))
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		trust INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS decisions (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		left_cluster INTEGER NOT NULL,
		right_cluster INTEGER NOT NULL,
		image_a TEXT NOT NULL DEFAULT '',
		image_b TEXT NOT NULL DEFAULT '',
		potency INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	`
	_, err := j.db.Exec(schema)
	return err
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) CreateSession(ctx context.Context, info SessionInfo) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, trust, seed, source)
		VALUES (?, ?, ?, ?, ?)
	`, info.ID, formatTime(info.CreatedAt), info.Trust, int64(info.Seed), info.Source)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	j.logger.Info("session created", zap.String("session_id", info.ID), zap.String("source", info.Source))
	return nil
}

func (j *Journal) Session(ctx context.Context, id string) (SessionInfo, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, created_at, trust, seed, source FROM sessions WHERE id = ?
	`, id)
	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return info, err
}

// Sessions lists every session, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, created_at, trust, seed, source FROM sessions ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (SessionInfo, error) {
	var (
		info    SessionInfo
		created string
		seed    int64
	)
	if err := s.Scan(&info.ID, &created, &info.Trust, &seed, &info.Source); err != nil {
		return SessionInfo{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return SessionInfo{}, err
	}
	info.CreatedAt = t
	info.Seed = uint64(seed)
	return info, nil
}

// Append records one decision. Sequence numbers are unique per session.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	d := e.Decision
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO decisions (session_id, seq, kind, left_cluster, right_cluster, image_a, image_b, potency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Seq, string(d.Kind), int(d.Left), int(d.Right), d.ImageA, d.ImageB, e.Potency, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append decision %d: %w", e.Seq, err)
	}
	return nil
}

// Decisions returns a session's log in sequence order.
func (j *Journal) Decisions(ctx context.Context, sessionID string) ([]Entry, error) {
	if _, err := j.Session(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, left_cluster, right_cluster, image_a, image_b, potency, created_at
		FROM decisions WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			kind        string
			left, right int
			created     string
		)
		if err := rows.Scan(&e.Seq, &kind, &left, &right, &e.Decision.ImageA, &e.Decision.ImageB, &e.Potency, &created); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		k, err := model.ParseDecisionKind(kind)
		if err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		e.SessionID = sessionID
		e.Decision.Kind = k
		e.Decision.Left = model.ClusterID(left)
		e.Decision.Right = model.ClusterID(right)
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
