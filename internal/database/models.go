package database

// ConversationMarker is a user's current conversation. Timestamps are
// unix seconds.
type ConversationMarker struct {
	UserID       int64  `db:"user_id"`
	Conversation string `db:"conversation"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

// UpdateOffset is the single-row table holding the next getUpdates offset.
type UpdateOffset struct {
	NextOffset int64 `db:"next_offset"`
	UpdatedAt  int64 `db:"updated_at"`
}
