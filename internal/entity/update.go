package entity

import "encoding/json"

// UpdateKind names the variant carried by an Update.
type UpdateKind string

const (
	UpdateUnknown                 UpdateKind = ""
	UpdateMessage                 UpdateKind = "message"
	UpdateEditedMessage           UpdateKind = "edited_message"
	UpdateChannelPost             UpdateKind = "channel_post"
	UpdateEditedChannelPost       UpdateKind = "edited_channel_post"
	UpdateBusinessConnection      UpdateKind = "business_connection"
	UpdateBusinessMessage         UpdateKind = "business_message"
	UpdateEditedBusinessMessage   UpdateKind = "edited_business_message"
	UpdateDeletedBusinessMessages UpdateKind = "deleted_business_messages"
	UpdateMessageReaction         UpdateKind = "message_reaction"
	UpdateMessageReactionCount    UpdateKind = "message_reaction_count"
	UpdateInlineQuery             UpdateKind = "inline_query"
	UpdateChosenInlineResult      UpdateKind = "chosen_inline_result"
	UpdateCallbackQuery           UpdateKind = "callback_query"
	UpdateShippingQuery           UpdateKind = "shipping_query"
	UpdatePreCheckoutQuery        UpdateKind = "pre_checkout_query"
	UpdatePurchasedPaidMedia      UpdateKind = "purchased_paid_media"
	UpdatePoll                    UpdateKind = "poll"
	UpdatePollAnswer              UpdateKind = "poll_answer"
	UpdateMyChatMember            UpdateKind = "my_chat_member"
	UpdateChatMember              UpdateKind = "chat_member"
	UpdateChatJoinRequest         UpdateKind = "chat_join_request"
	UpdateChatBoost               UpdateKind = "chat_boost"
	UpdateRemovedChatBoost        UpdateKind = "removed_chat_boost"
)

// updateKinds is the resolution order; the first key present in the
// payload decides the variant.
var updateKinds = []UpdateKind{
	UpdateMessage,
	UpdateEditedMessage,
	UpdateChannelPost,
	UpdateEditedChannelPost,
	UpdateBusinessConnection,
	UpdateBusinessMessage,
	UpdateEditedBusinessMessage,
	UpdateDeletedBusinessMessages,
	UpdateMessageReaction,
	UpdateMessageReactionCount,
	UpdateInlineQuery,
	UpdateChosenInlineResult,
	UpdateCallbackQuery,
	UpdateShippingQuery,
	UpdatePreCheckoutQuery,
	UpdatePurchasedPaidMedia,
	UpdatePoll,
	UpdatePollAnswer,
	UpdateMyChatMember,
	UpdateChatMember,
	UpdateChatJoinRequest,
	UpdateChatBoost,
	UpdateRemovedChatBoost,
}

// UpdateKinds returns every known update variant in resolution order.
// The result is suitable for the allowed_updates polling parameter.
func UpdateKinds() []UpdateKind {
	return append([]UpdateKind(nil), updateKinds...)
}

func updateKindStrings() []string {
	out := make([]string, len(updateKinds))
	for i, k := range updateKinds {
		out[i] = string(k)
	}
	return out
}

// messageVariants carry a Message payload directly.
var messageVariants = map[UpdateKind]bool{
	UpdateMessage:               true,
	UpdateEditedMessage:         true,
	UpdateChannelPost:           true,
	UpdateEditedChannelPost:     true,
	UpdateBusinessMessage:       true,
	UpdateEditedBusinessMessage: true,
}

// chatVariants carry a "chat" field on the variant payload.
var chatVariants = map[UpdateKind]bool{
	UpdateDeletedBusinessMessages: true,
	UpdateMessageReaction:         true,
	UpdateMessageReactionCount:    true,
	UpdateMyChatMember:            true,
	UpdateChatMember:              true,
	UpdateChatJoinRequest:         true,
	UpdateChatBoost:               true,
	UpdateRemovedChatBoost:        true,
}

// Update is an incoming Bot API update.
type Update struct {
	*Entity
}

// AsUpdate views e as an Update. It returns nil for a nil entity.
func AsUpdate(e *Entity) *Update {
	if e == nil {
		return nil
	}
	return &Update{Entity: e}
}

// ParseUpdate maps a single update body, as delivered to a webhook.
func ParseUpdate(body []byte) (*Update, error) {
	e, err := MapEntity(json.RawMessage(body), KindUpdate)
	if err != nil {
		return nil, err
	}
	return AsUpdate(e), nil
}

// ParseUpdates maps a getUpdates result array.
func ParseUpdates(raw json.RawMessage) ([]*Update, error) {
	list, err := MapEntities(raw, KindUpdate)
	if err != nil {
		return nil, err
	}
	out := make([]*Update, len(list))
	for i, e := range list {
		out[i] = AsUpdate(e)
	}
	return out, nil
}

func (u *Update) entity() *Entity {
	if u == nil {
		return nil
	}
	return u.Entity
}

// ID returns the update_id.
func (u *Update) ID() int64 {
	return u.entity().Int64("update_id")
}

// Type returns the variant this update carries, or UpdateUnknown.
func (u *Update) Type() UpdateKind {
	return UpdateKind(u.entity().Type())
}

// Payload returns the entity of the carried variant.
func (u *Update) Payload() *Entity {
	t := u.Type()
	if t == UpdateUnknown {
		return nil
	}
	return u.entity().Child(string(t))
}

// Message returns the message-like payload of the update, including the
// message a callback query was attached to, or nil.
func (u *Update) Message() *Message {
	t := u.Type()
	switch {
	case messageVariants[t]:
		return AsMessage(u.entity().Child(string(t)))
	case t == UpdateCallbackQuery:
		return AsMessage(u.entity().Child(string(t)).Child("message"))
	default:
		return nil
	}
}

// CallbackQuery returns the callback query payload, or nil.
func (u *Update) CallbackQuery() *CallbackQuery {
	if u.Type() != UpdateCallbackQuery {
		return nil
	}
	return AsCallbackQuery(u.Payload())
}

// Chat returns the chat the update happened in, or nil when the variant
// has none (inline queries, polls, shipping queries and the like).
func (u *Update) Chat() *Chat {
	if m := u.Message(); m != nil {
		return m.Chat()
	}
	t := u.Type()
	if chatVariants[t] {
		return AsChat(u.Payload().Child("chat"))
	}
	return nil
}

// From returns the user who caused the update, or nil.
func (u *Update) From() *User {
	t := u.Type()
	switch {
	case t == UpdateUnknown:
		return nil
	case messageVariants[t]:
		return u.Message().From()
	case t == UpdatePollAnswer, t == UpdateMessageReaction, t == UpdateBusinessConnection:
		return AsUser(u.Payload().Child("user"))
	default:
		return AsUser(u.Payload().Child("from"))
	}
}
