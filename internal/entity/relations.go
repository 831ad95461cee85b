package entity

import "maps"

// Kind names an entity type of the Bot API.
type Kind string

// KindNone requests an untyped result: the decoded JSON value is returned unchanged.
const KindNone Kind = ""

const (
	KindUpdate                  Kind = "Update"
	KindMessage                 Kind = "Message"
	KindMessageEntity           Kind = "MessageEntity"
	KindUser                    Kind = "User"
	KindChat                    Kind = "Chat"
	KindPhotoSize               Kind = "PhotoSize"
	KindAnimation               Kind = "Animation"
	KindAudio                   Kind = "Audio"
	KindDocument                Kind = "Document"
	KindVideo                   Kind = "Video"
	KindVideoNote               Kind = "VideoNote"
	KindVoice                   Kind = "Voice"
	KindSticker                 Kind = "Sticker"
	KindContact                 Kind = "Contact"
	KindDice                    Kind = "Dice"
	KindLocation                Kind = "Location"
	KindVenue                   Kind = "Venue"
	KindPoll                    Kind = "Poll"
	KindPollOption              Kind = "PollOption"
	KindPollAnswer              Kind = "PollAnswer"
	KindCallbackQuery           Kind = "CallbackQuery"
	KindInlineQuery             Kind = "InlineQuery"
	KindChosenInlineResult      Kind = "ChosenInlineResult"
	KindInvoice                 Kind = "Invoice"
	KindSuccessfulPayment       Kind = "SuccessfulPayment"
	KindShippingQuery           Kind = "ShippingQuery"
	KindShippingAddress         Kind = "ShippingAddress"
	KindPreCheckoutQuery        Kind = "PreCheckoutQuery"
	KindOrderInfo               Kind = "OrderInfo"
	KindChatMember              Kind = "ChatMember"
	KindChatMemberUpdated       Kind = "ChatMemberUpdated"
	KindChatJoinRequest         Kind = "ChatJoinRequest"
	KindChatInviteLink          Kind = "ChatInviteLink"
	KindMessageReactionUpdated  Kind = "MessageReactionUpdated"
	KindMessageReactionCount    Kind = "MessageReactionCountUpdated"
	KindChatBoostUpdated        Kind = "ChatBoostUpdated"
	KindChatBoostRemoved        Kind = "ChatBoostRemoved"
	KindBusinessConnection      Kind = "BusinessConnection"
	KindBusinessMessagesDeleted Kind = "BusinessMessagesDeleted"
	KindPaidMediaPurchased      Kind = "PaidMediaPurchased"
	KindFile                    Kind = "File"
	KindWebhookInfo             Kind = "WebhookInfo"
	KindBotCommand              Kind = "BotCommand"
)

// Relation declares the entity kind a field hydrates into. Repeated
// relations hold a JSON array of that kind.
type Relation struct {
	Kind     Kind
	Repeated bool
}

func one(k Kind) Relation  { return Relation{Kind: k} }
func many(k Kind) Relation { return Relation{Kind: k, Repeated: true} }

// relations is the static parent -> child table consulted by the mapper.
// Kinds without an entry are leaves: all their fields are kept verbatim.
var relations = map[Kind]map[string]Relation{
	KindUpdate: {
		"message":                   one(KindMessage),
		"edited_message":            one(KindMessage),
		"channel_post":              one(KindMessage),
		"edited_channel_post":       one(KindMessage),
		"business_connection":       one(KindBusinessConnection),
		"business_message":          one(KindMessage),
		"edited_business_message":   one(KindMessage),
		"deleted_business_messages": one(KindBusinessMessagesDeleted),
		"message_reaction":          one(KindMessageReactionUpdated),
		"message_reaction_count":    one(KindMessageReactionCount),
		"inline_query":              one(KindInlineQuery),
		"chosen_inline_result":      one(KindChosenInlineResult),
		"callback_query":            one(KindCallbackQuery),
		"shipping_query":            one(KindShippingQuery),
		"pre_checkout_query":        one(KindPreCheckoutQuery),
		"purchased_paid_media":      one(KindPaidMediaPurchased),
		"poll":                      one(KindPoll),
		"poll_answer":               one(KindPollAnswer),
		"my_chat_member":            one(KindChatMemberUpdated),
		"chat_member":               one(KindChatMemberUpdated),
		"chat_join_request":         one(KindChatJoinRequest),
		"chat_boost":                one(KindChatBoostUpdated),
		"removed_chat_boost":        one(KindChatBoostRemoved),
	},
	KindMessage: {
		"from":               one(KindUser),
		"sender_chat":        one(KindChat),
		"chat":               one(KindChat),
		"forward_from":       one(KindUser),
		"forward_from_chat":  one(KindChat),
		"reply_to_message":   one(KindMessage),
		"pinned_message":     one(KindMessage),
		"via_bot":            one(KindUser),
		"entities":           many(KindMessageEntity),
		"caption_entities":   many(KindMessageEntity),
		"animation":          one(KindAnimation),
		"audio":              one(KindAudio),
		"document":           one(KindDocument),
		"photo":              many(KindPhotoSize),
		"sticker":            one(KindSticker),
		"video":              one(KindVideo),
		"video_note":         one(KindVideoNote),
		"voice":              one(KindVoice),
		"contact":            one(KindContact),
		"dice":               one(KindDice),
		"location":           one(KindLocation),
		"venue":              one(KindVenue),
		"poll":               one(KindPoll),
		"new_chat_members":   many(KindUser),
		"left_chat_member":   one(KindUser),
		"new_chat_photo":     many(KindPhotoSize),
		"invoice":            one(KindInvoice),
		"successful_payment": one(KindSuccessfulPayment),
	},
	KindMessageEntity:      {"user": one(KindUser)},
	KindAnimation:          {"thumbnail": one(KindPhotoSize)},
	KindAudio:              {"thumbnail": one(KindPhotoSize)},
	KindDocument:           {"thumbnail": one(KindPhotoSize)},
	KindVideo:              {"thumbnail": one(KindPhotoSize)},
	KindVideoNote:          {"thumbnail": one(KindPhotoSize)},
	KindSticker:            {"thumbnail": one(KindPhotoSize)},
	KindVenue:              {"location": one(KindLocation)},
	KindPoll:               {"options": many(KindPollOption)},
	KindPollAnswer:         {"user": one(KindUser), "voter_chat": one(KindChat)},
	KindCallbackQuery:      {"from": one(KindUser), "message": one(KindMessage)},
	KindInlineQuery:        {"from": one(KindUser), "location": one(KindLocation)},
	KindChosenInlineResult: {"from": one(KindUser), "location": one(KindLocation)},
	KindShippingQuery:      {"from": one(KindUser), "shipping_address": one(KindShippingAddress)},
	KindPreCheckoutQuery:   {"from": one(KindUser), "order_info": one(KindOrderInfo)},
	KindOrderInfo:          {"shipping_address": one(KindShippingAddress)},
	KindSuccessfulPayment:  {"order_info": one(KindOrderInfo)},
	KindChatMember:         {"user": one(KindUser)},
	KindChatMemberUpdated: {
		"chat":            one(KindChat),
		"from":            one(KindUser),
		"old_chat_member": one(KindChatMember),
		"new_chat_member": one(KindChatMember),
		"invite_link":     one(KindChatInviteLink),
	},
	KindChatJoinRequest: {
		"chat":        one(KindChat),
		"from":        one(KindUser),
		"invite_link": one(KindChatInviteLink),
	},
	KindChatInviteLink:          {"creator": one(KindUser)},
	KindMessageReactionUpdated:  {"chat": one(KindChat), "user": one(KindUser), "actor_chat": one(KindChat)},
	KindMessageReactionCount:    {"chat": one(KindChat)},
	KindChatBoostUpdated:        {"chat": one(KindChat)},
	KindChatBoostRemoved:        {"chat": one(KindChat)},
	KindBusinessConnection:      {"user": one(KindUser)},
	KindBusinessMessagesDeleted: {"chat": one(KindChat)},
	KindPaidMediaPurchased:      {"from": one(KindUser)},
}

// Relations returns a copy of the relation table declared for k.
func Relations(k Kind) map[string]Relation {
	return maps.Clone(relations[k])
}

// discriminators lists, per kind, the keys whose presence decides which
// variant a payload is. The first present key wins.
var discriminators = map[Kind][]string{
	KindUpdate: updateKindStrings(),
	KindMessage: {
		"text", "animation", "audio", "document", "photo", "sticker", "story",
		"video", "video_note", "voice", "contact", "dice", "game", "poll",
		"venue", "location", "new_chat_members", "left_chat_member",
		"new_chat_title", "new_chat_photo", "delete_chat_photo",
		"group_chat_created", "supergroup_chat_created", "channel_chat_created",
		"migrate_to_chat_id", "migrate_from_chat_id", "pinned_message",
		"invoice", "successful_payment", "passport_data",
		"proximity_alert_triggered", "reply_markup",
	},
	KindCallbackQuery:    {"message", "inline_message_id"},
	KindPreCheckoutQuery: {"shipping_option_id", "order_info"},
}
