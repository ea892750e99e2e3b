package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type noteRepo struct {
	db *sql.DB
}

// urlSeparator joins the note's URLs into one column. Newlines cannot
// appear inside a URL, so the encoding is unambiguous.
const urlSeparator = "\n"

func (r *noteRepo) SaveNote(ctx context.Context, n *Note) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, content, urls, created_at) VALUES (?, ?, ?, ?)`,
		n.ID, n.Content, strings.Join(n.URLs, urlSeparator), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

func (r *noteRepo) GetNote(ctx context.Context, id string) (*Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, content, urls, created_at FROM notes WHERE id = ?`, id)

	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (r *noteRepo) UnscoredNotes(ctx context.Context, limit int) ([]Note, error) {
	q := `SELECT n.id, n.content, n.urls, n.created_at
		FROM notes n
		LEFT JOIN note_labels l ON l.note_id = n.id
		WHERE l.id IS NULL
		ORDER BY n.created_at ASC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query unscored notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var urls string
	if err := row.Scan(&n.ID, &n.Content, &urls, &n.CreatedAt); err != nil {
		return nil, err
	}
	if urls != "" {
		n.URLs = strings.Split(urls, urlSeparator)
	}
	return &n, nil
}

func (r *noteRepo) SaveLabel(ctx context.Context, noteID, label, kind string, confidence float64, confirmed bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO note_labels (note_id, label, kind, confidence, confirmed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (note_id, label) DO UPDATE SET
			confidence = excluded.confidence,
			confirmed = excluded.confirmed`,
		noteID, label, kind, confidence, boolToInt(confirmed),
	)
	if err != nil {
		return fmt.Errorf("save label: %w", err)
	}
	return nil
}

func (r *noteRepo) EngagementCounters(ctx context.Context, daysBack int) ([]SuggestionCandidate, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)

	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, l.label, n.content, COALESCE(i.count, 0), i.last_shown_at
		FROM notes n
		JOIN note_labels l ON l.note_id = n.id AND l.kind = 'category' AND l.confirmed = 1
		LEFT JOIN note_impressions i ON i.note_id = n.id
		WHERE n.created_at >= ?
		ORDER BY l.label, n.created_at`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query engagement counters: %w", err)
	}
	defer rows.Close()

	var out []SuggestionCandidate
	for rows.Next() {
		var c SuggestionCandidate
		var lastShown sql.NullTime
		if err := rows.Scan(&c.NoteID, &c.Category, &c.Content, &c.Impressions, &lastShown); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if lastShown.Valid {
			c.LastShownAt = lastShown.Time
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fillCategoryMinimums(out)
	return out, nil
}

// fillCategoryMinimums stamps each candidate with the minimum impression
// count observed in its category.
func fillCategoryMinimums(candidates []SuggestionCandidate) {
	mins := make(map[string]int)
	for _, c := range candidates {
		if m, ok := mins[c.Category]; !ok || c.Impressions < m {
			mins[c.Category] = c.Impressions
		}
	}
	for i := range candidates {
		candidates[i].CategoryMinImpressions = mins[candidates[i].Category]
	}
}

func (r *noteRepo) AddImpressions(ctx context.Context, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, id := range noteIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO note_impressions (note_id, count, last_shown_at)
			VALUES (?, 1, ?)
			ON CONFLICT (note_id) DO UPDATE SET
				count = count + 1,
				last_shown_at = excluded.last_shown_at`,
			id, now,
		)
		if err != nil {
			return fmt.Errorf("add impression for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (r *noteRepo) LabelCounts(ctx context.Context) ([]LabelCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, kind, COUNT(*), SUM(confirmed)
		FROM note_labels
		GROUP BY label, kind
		ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query label counts: %w", err)
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Kind, &lc.Total, &lc.Confirmed); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
