package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pagination is the paging block returned with every comments page.
type Pagination struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"total_pages"`
}

// CommentsPage is one response from the comments endpoint.
type CommentsPage struct {
	Pagination Pagination `json:"pagination"`
	Data       []Comment  `json:"data"`
}

// Comment is a single comment record as fetched. Records are never modified
// after decoding; the tree builder wraps them instead.
type Comment struct {
	ID      int       `json:"id"`
	Created time.Time `json:"created"`
	Text    string    `json:"text"`
	Author  int       `json:"author"`
	Parent  *int      `json:"parent"`
	Likes   int       `json:"likes"`
}

// HasParent reports whether the comment names a parent comment.
func (c Comment) HasParent() bool {
	return c.Parent != nil
}

// ParentID returns the parent id, or 0 when the comment has none.
func (c Comment) ParentID() int {
	if c.Parent == nil {
		return 0
	}
	return *c.Parent
}

// AuthorIndex is the key used to look the comment's author up in the author
// directory. Author ids start at 1 while the directory is keyed from 0.
func (c Comment) AuthorIndex() int {
	return c.Author - 1
}

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts "created" as any of the common ISO-8601 shapes and
// "parent" as null, a number or a numeric string.
func (c *Comment) UnmarshalJSON(b []byte) error {
	type alias Comment
	aux := struct {
		*alias
		Created string          `json:"created"`
		Parent  json.RawMessage `json:"parent"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	created, err := parseCreated(aux.Created)
	if err != nil {
		return fmt.Errorf("comment %d: %w", c.ID, err)
	}
	c.Created = created

	parent, err := parseParent(aux.Parent)
	if err != nil {
		return fmt.Errorf("comment %d: %w", c.ID, err)
	}
	c.Parent = parent
	return nil
}

func parseCreated(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised created timestamp %q", s)
}

// parseParent maps null, "" and 0 to no parent.
func parseParent(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var id int
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decoding parent: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parent %q is not a comment id", s)
		}
		id = n
	} else if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("decoding parent: %w", err)
	}

	if id == 0 {
		return nil, nil
	}
	return &id, nil
}

// Author is an entry of the author directory.
type Author struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Authors is the author directory keyed by zero-based position.
type Authors map[int]Author

// PlaceholderAuthors is the directory in effect before the authors endpoint
// has answered: a single empty author at key 0.
func PlaceholderAuthors() Authors {
	return Authors{0: {}}
}

// UnmarshalJSON accepts either a JSON array, keyed by index, or an object
// with integer keys.
func (a *Authors) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []Author
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		m := make(Authors, len(list))
		for i, author := range list {
			m[i] = author
		}
		*a = m
		return nil
	}

	var m map[int]Author
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*a = Authors(m)
	return nil
}
