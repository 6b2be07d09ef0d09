package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workshop/api/internal/workshop"
)

// SQLStore keeps each session as one JSON document row. The scalar columns
// exist for listing and ad-hoc queries; the document is authoritative.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Get(ctx context.Context, id string) (*workshop.Session, error) {
	var document string
	err := s.db.QueryRowContext(ctx, s.dialect.bind(`SELECT document FROM workshop_sessions WHERE id=?`), id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workshop.NotFound("session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return decodeSession(document)
}

func (s *SQLStore) Put(ctx context.Context, session *workshop.Session) error {
	document, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	query := `
		INSERT INTO workshop_sessions (id, board_name, current_phase, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			board_name = excluded.board_name,
			current_phase = excluded.current_phase,
			document = excluded.document,
			updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, s.dialect.bind(query),
		session.ID,
		session.BoardName,
		string(session.CurrentPhase),
		string(document),
		s.timestamp(session.CreatedAt),
		s.timestamp(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]*workshop.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM workshop_sessions ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*workshop.Session, 0)
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session, err := decodeSession(document)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timestamp returns a value both drivers order correctly: time.Time for
// postgres, a fixed-width UTC string for sqlite.
func (s *SQLStore) timestamp(t time.Time) any {
	if s.dialect == DialectSQLite {
		return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
	}
	return t.UTC()
}

func decodeSession(document string) (*workshop.Session, error) {
	var session workshop.Session
	if err := json.Unmarshal([]byte(document), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session.Normalize()
	return &session, nil
}
