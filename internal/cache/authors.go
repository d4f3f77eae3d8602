package cache

import (
	"database/sql"
	"fmt"

	"github.com/fragmede/chatter/internal/api"
)

// ReplaceAuthors swaps the stored author directory for authors.
func (d *DB) ReplaceAuthors(authors api.Authors) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning author replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM authors`); err != nil {
		return fmt.Errorf("clearing authors: %w", err)
	}
	for idx, a := range authors {
		if _, err := tx.Exec(`INSERT INTO authors (idx, id, name, avatar) VALUES (?, ?, ?, ?)`,
			idx, a.ID, nullStr(a.Name), nullStr(a.Avatar)); err != nil {
			return fmt.Errorf("storing author %d: %w", idx, err)
		}
	}
	return tx.Commit()
}

// Authors returns the stored author directory. It is empty, not nil, when no
// authors are stored.
func (d *DB) Authors() (api.Authors, error) {
	rows, err := d.db.Query(`SELECT idx, id, name, avatar FROM authors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(api.Authors)
	for rows.Next() {
		var idx int
		var a api.Author
		var name, avatar sql.NullString
		if err := rows.Scan(&idx, &a.ID, &name, &avatar); err != nil {
			return nil, err
		}
		a.Name = name.String
		a.Avatar = avatar.String
		result[idx] = a
	}
	return result, rows.Err()
}
