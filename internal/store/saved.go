package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/serial"
)

// SavedQuery is one stored search.
type SavedQuery struct {
	ID          string
	Title       string
	Fingerprint string
	Seq         int64
	Query       query.Query
}

// Save stores q under title. If an equal query is already stored, the
// existing record is returned with inserted=false and its title is left
// unchanged.
func (s *Store) Save(ctx context.Context, title string, q query.Query) (saved SavedQuery, inserted bool, err error) {
	if !q.IsValid() {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", ErrInvalidQuery)
	}
	fingerprint, err := query.Fingerprint(q)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}
	body, err := serial.Marshal(q)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: encode: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := scanSaved(tx.QueryRowContext(ctx, `
		SELECT id, title, fingerprint, body, seq
		FROM saved_queries
		WHERE fingerprint = ?
	`, fingerprint))
	switch {
	case err == nil:
		s.logger.Debug("saved search deduplicated", "id", existing.ID, "fingerprint", fingerprint)
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return SavedQuery{}, false, fmt.Errorf("save query: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM saved_queries`).Scan(&seq); err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: next seq: %w", err)
	}

	saved = SavedQuery{
		ID:          s.ids.Generate(),
		Title:       title,
		Fingerprint: fingerprint,
		Seq:         seq,
		Query:       q,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_queries (id, title, fingerprint, body, seq)
		VALUES (?, ?, ?, ?, ?)
	`, saved.ID, saved.Title, saved.Fingerprint, string(body), saved.Seq)
	if err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SavedQuery{}, false, fmt.Errorf("save query: commit: %w", err)
	}
	s.logger.Debug("saved search stored", "id", saved.ID, "seq", saved.Seq)
	return saved, true, nil
}

// Get returns the saved search with the given id.
func (s *Store) Get(ctx context.Context, id string) (SavedQuery, error) {
	saved, err := scanSaved(s.db.QueryRowContext(ctx, `
		SELECT id, title, fingerprint, body, seq
		FROM saved_queries
		WHERE id = ?
	`, id))
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get %q: %w", id, err)
	}
	return saved, nil
}

// FindByFingerprint returns the saved search whose query has the given
// fingerprint.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (SavedQuery, error) {
	saved, err := scanSaved(s.db.QueryRowContext(ctx, `
		SELECT id, title, fingerprint, body, seq
		FROM saved_queries
		WHERE fingerprint = ?
	`, fingerprint))
	if err != nil {
		return SavedQuery{}, fmt.Errorf("find fingerprint %s: %w", fingerprint, err)
	}
	return saved, nil
}

// List returns every saved search in insertion order.
//
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) List(ctx context.Context) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, fingerprint, body, seq
		FROM saved_queries
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list saved queries: %w", err)
	}
	defer rows.Close()

	out := []SavedQuery{}
	for rows.Next() {
		saved, err := scanSaved(rows)
		if err != nil {
			return nil, fmt.Errorf("list saved queries: %w", err)
		}
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved queries: %w", err)
	}
	return out, nil
}

// Delete removes the saved search with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	s.logger.Debug("saved search deleted", "id", id)
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSaved(row rowScanner) (SavedQuery, error) {
	var (
		saved SavedQuery
		body  string
	)
	err := row.Scan(&saved.ID, &saved.Title, &saved.Fingerprint, &body, &saved.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, ErrNotFound
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("scan saved query: %w", err)
	}

	q, err := serial.Unmarshal([]byte(body))
	if err != nil {
		return SavedQuery{}, fmt.Errorf("decode saved query %s: %w", saved.ID, err)
	}
	saved.Query = q
	return saved, nil
}
