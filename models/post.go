package models

import "time"

type Post struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Published bool       `db:"published" json:"published"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"-"`
	OwnerID   int64      `db:"owner_id" json:"owner_id"`
	Owner     UserPublic `json:"owner"`
}

// PostWithVotes is a list/detail row: the post plus its vote count and
// whether the viewing user has voted on it. The capitalized "Post" key is
// part of the wire contract the dashboard consumes.
type PostWithVotes struct {
	Post      Post `json:"Post"`
	Votes     int  `json:"votes"`
	UserVoted bool `json:"user_voted"`
}
