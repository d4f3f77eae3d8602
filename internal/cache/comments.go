package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fragmede/chatter/internal/api"
)

// AppendComments adds the comments of one fetched page after everything
// already stored. Comments are never deduplicated or replaced: fetching the
// same page twice stores its comments twice.
func (d *DB) AppendComments(page int, comments []api.Comment) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO comments
		(id, created, text, author, parent_id, likes, page, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing append: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, c := range comments {
		if _, err := stmt.Exec(c.ID, nullTime(c.Created), nullStr(c.Text), c.Author,
			nullParent(c.Parent), c.Likes, page, now); err != nil {
			return fmt.Errorf("appending comment %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Comments returns every stored comment in the order it was appended.
func (d *DB) Comments() ([]api.Comment, error) {
	rows, err := d.db.Query(`SELECT id, created, text, author, parent_id, likes
		FROM comments ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []api.Comment
	for rows.Next() {
		var c api.Comment
		var created, text sql.NullString
		var parentID sql.NullInt64
		if err := rows.Scan(&c.ID, &created, &text, &c.Author, &parentID, &c.Likes); err != nil {
			return nil, err
		}
		c.Text = text.String
		if created.Valid {
			t, err := time.Parse(time.RFC3339Nano, created.String)
			if err != nil {
				return nil, fmt.Errorf("comment %d: %w", c.ID, err)
			}
			c.Created = t
		}
		if parentID.Valid {
			p := int(parentID.Int64)
			c.Parent = &p
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// CommentCount returns the number of stored comments, duplicates included.
func (d *DB) CommentCount() (int, error) {
	var count int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return count, nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func nullParent(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
