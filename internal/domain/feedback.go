package domain

import "time"

// UserFeedback holds reporter feedback, present only once a ticket has
// reached resolved or closed.
type UserFeedback struct {
	Rating   *int      `json:"rating,omitempty"` // 1..5 when set
	Likes    int       `json:"likes"`
	Dislikes int       `json:"dislikes"`
	Comments []Comment `json:"comments"`
}

// Comment is a reporter-authored remark attached to ticket feedback.
type Comment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeedbackDimension names a single optimistically-mutated feedback value.
type FeedbackDimension string

const (
	DimensionRating  FeedbackDimension = "rating"
	DimensionLike    FeedbackDimension = "like"
	DimensionDislike FeedbackDimension = "dislike"
)
