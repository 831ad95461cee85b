package entity

// Message is a chat message.
type Message struct {
	*Entity
}

// AsMessage views e as a Message. It returns nil for a nil entity.
func AsMessage(e *Entity) *Message {
	if e == nil {
		return nil
	}
	return &Message{Entity: e}
}

func (m *Message) entity() *Entity {
	if m == nil {
		return nil
	}
	return m.Entity
}

func (m *Message) ID() int64         { return m.entity().Int64("message_id") }
func (m *Message) Text() string      { return m.entity().String("text") }
func (m *Message) Caption() string   { return m.entity().String("caption") }
func (m *Message) Date() int64       { return m.entity().Int64("date") }
func (m *Message) ThreadID() int64   { return m.entity().Int64("message_thread_id") }
func (m *Message) From() *User       { return AsUser(m.entity().Child("from")) }
func (m *Message) Chat() *Chat       { return AsChat(m.entity().Child("chat")) }
func (m *Message) ReplyTo() *Message { return AsMessage(m.entity().Child("reply_to_message")) }

// Type returns the content type of the message ("text", "photo", ...),
// or "" when none of the known content keys is present.
func (m *Message) Type() string {
	return m.entity().Type()
}

// User is a Telegram user or bot.
type User struct {
	*Entity
}

// AsUser views e as a User. It returns nil for a nil entity.
func AsUser(e *Entity) *User {
	if e == nil {
		return nil
	}
	return &User{Entity: e}
}

func (u *User) entity() *Entity {
	if u == nil {
		return nil
	}
	return u.Entity
}

func (u *User) ID() int64            { return u.entity().Int64("id") }
func (u *User) IsBot() bool          { return u.entity().Bool("is_bot") }
func (u *User) FirstName() string    { return u.entity().String("first_name") }
func (u *User) LastName() string     { return u.entity().String("last_name") }
func (u *User) Username() string     { return u.entity().String("username") }
func (u *User) LanguageCode() string { return u.entity().String("language_code") }

// Chat is a private chat, group, supergroup or channel.
type Chat struct {
	*Entity
}

// AsChat views e as a Chat. It returns nil for a nil entity.
func AsChat(e *Entity) *Chat {
	if e == nil {
		return nil
	}
	return &Chat{Entity: e}
}

func (c *Chat) entity() *Entity {
	if c == nil {
		return nil
	}
	return c.Entity
}

func (c *Chat) ID() int64        { return c.entity().Int64("id") }
func (c *Chat) Title() string    { return c.entity().String("title") }
func (c *Chat) Username() string { return c.entity().String("username") }

// ChatType returns "private", "group", "supergroup" or "channel".
func (c *Chat) ChatType() string { return c.entity().String("type") }

// IsPrivate reports whether the chat is a one-to-one chat with a user.
func (c *Chat) IsPrivate() bool { return c.ChatType() == "private" }

// CallbackQuery is a press of an inline keyboard button.
type CallbackQuery struct {
	*Entity
}

// AsCallbackQuery views e as a CallbackQuery. It returns nil for a nil entity.
func AsCallbackQuery(e *Entity) *CallbackQuery {
	if e == nil {
		return nil
	}
	return &CallbackQuery{Entity: e}
}

func (q *CallbackQuery) entity() *Entity {
	if q == nil {
		return nil
	}
	return q.Entity
}

func (q *CallbackQuery) ID() string              { return q.entity().String("id") }
func (q *CallbackQuery) Data() string            { return q.entity().String("data") }
func (q *CallbackQuery) InlineMessageID() string { return q.entity().String("inline_message_id") }
func (q *CallbackQuery) From() *User             { return AsUser(q.entity().Child("from")) }
func (q *CallbackQuery) Message() *Message       { return AsMessage(q.entity().Child("message")) }

// Type returns "message" when the button was attached to a regular
// message, "inline_message_id" for inline-mode messages, or "".
func (q *CallbackQuery) Type() string {
	return q.entity().Type()
}
