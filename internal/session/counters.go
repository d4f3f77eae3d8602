package session

import (
	"github.com/fragmede/chatter/internal/api"
	"github.com/fragmede/chatter/internal/likes"
)

// Counters are the header totals.
type Counters struct {
	TotalComments int
	TotalLikes    int
}

// Aggregate derives the header totals. TotalLikes adds one per locally liked
// id on top of the stored like counts; it does not check that the liked id
// belongs to any record.
func Aggregate(records []api.Comment, liked likes.Set) Counters {
	sum := 0
	for _, r := range records {
		sum += r.Likes
	}
	return Counters{
		TotalComments: len(records),
		TotalLikes:    sum + liked.Len(),
	}
}
