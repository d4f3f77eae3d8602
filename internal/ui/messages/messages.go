package messages

import "github.com/fragmede/chatter/internal/api"

// Data messages. Err is set when the fetch failed; it has already been
// logged and the UI does not surface it.
type (
	PageLoadedMsg struct {
		Page int
		Data *api.CommentsPage
		Err  error
	}

	AuthorsLoadedMsg struct {
		Authors api.Authors
		Err     error
	}
)

// UI messages.
type (
	LikeToggledMsg struct {
		CommentID int
		Liked     bool
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
