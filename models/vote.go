package models

// Vote is pure presence: a row means the user has upvoted the post.
// Identity is the (user, post) pair; there is no direction or weight.
type Vote struct {
	UserID int64 `db:"user_id" json:"user_id"`
	PostID int64 `db:"post_id" json:"post_id"`
}
