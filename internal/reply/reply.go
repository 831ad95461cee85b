// Package reply implements answering an update in the chat it came from.
package reply

import (
	"context"
	"strings"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/entity"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

// Verb names a reply operation, the X in ReplyWithX.
type Verb string

const (
	Message    Verb = "Message"
	Photo      Verb = "Photo"
	Audio      Verb = "Audio"
	Video      Verb = "Video"
	Voice      Verb = "Voice"
	Document   Verb = "Document"
	Sticker    Verb = "Sticker"
	Location   Verb = "Location"
	ChatAction Verb = "ChatAction"
	Animation  Verb = "Animation"
	VideoNote  Verb = "VideoNote"
	Venue      Verb = "Venue"
	Contact    Verb = "Contact"
	Dice       Verb = "Dice"
	Poll       Verb = "Poll"
	MediaGroup Verb = "MediaGroup"
)

// Operation is the Bot API method a verb forwards to and the entity
// kind of its result. sendMediaGroup returns an array of that kind.
type Operation struct {
	Method string
	Result entity.Kind
}

var operations = map[Verb]Operation{
	Message:    {Method: "sendMessage", Result: entity.KindMessage},
	Photo:      {Method: "sendPhoto", Result: entity.KindMessage},
	Audio:      {Method: "sendAudio", Result: entity.KindMessage},
	Video:      {Method: "sendVideo", Result: entity.KindMessage},
	Voice:      {Method: "sendVoice", Result: entity.KindMessage},
	Document:   {Method: "sendDocument", Result: entity.KindMessage},
	Sticker:    {Method: "sendSticker", Result: entity.KindMessage},
	Location:   {Method: "sendLocation", Result: entity.KindMessage},
	ChatAction: {Method: "sendChatAction", Result: entity.KindNone},
	Animation:  {Method: "sendAnimation", Result: entity.KindMessage},
	VideoNote:  {Method: "sendVideoNote", Result: entity.KindMessage},
	Venue:      {Method: "sendVenue", Result: entity.KindMessage},
	Contact:    {Method: "sendContact", Result: entity.KindMessage},
	Dice:       {Method: "sendDice", Result: entity.KindMessage},
	Poll:       {Method: "sendPoll", Result: entity.KindMessage},
	MediaGroup: {Method: "sendMediaGroup", Result: entity.KindMessage},
}

// Lookup resolves a verb, accepting both "Photo" and "replyWithPhoto".
func Lookup(name string) (Operation, bool) {
	op, ok := operations[Verb(strings.TrimPrefix(name, "replyWith"))]
	return op, ok
}

// Replier answers in the chat of one update.
type Replier struct {
	caller api.Caller
	update *entity.Update
}

// New creates a Replier for update that sends through caller.
func New(caller api.Caller, update *entity.Update) *Replier {
	return &Replier{caller: caller, update: update}
}

// Update returns the update being answered.
func (r *Replier) Update() *entity.Update {
	return r.update
}

// Reply sends the operation named by verb to the update's chat. params
// must not carry chat_id: the resolved chat id is injected and replaces
// any caller value. params itself is not modified.
func (r *Replier) Reply(ctx context.Context, verb string, params api.Params) (any, error) {
	op, ok := Lookup(verb)
	if !ok {
		return nil, apperrors.NewInvocationError(methodName(verb), "unknown reply operation")
	}

	chat := r.update.Chat()
	if chat == nil {
		return nil, apperrors.NewInvocationError(methodName(verb), "no chat context")
	}

	out := params.Clone()
	out["chat_id"] = chat.ID()

	return r.caller.Request(ctx, op.Method, out, op.Result)
}

func methodName(verb string) string {
	if strings.HasPrefix(verb, "replyWith") {
		return verb
	}
	return "replyWith" + verb
}

// ReplyWithMessage sends text to the update's chat.
func (r *Replier) ReplyWithMessage(ctx context.Context, text string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["text"] = text
	return asMessage(r.Reply(ctx, string(Message), p))
}

// ReplyWithPhoto sends a photo given by file_id or URL.
func (r *Replier) ReplyWithPhoto(ctx context.Context, photo string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["photo"] = photo
	return asMessage(r.Reply(ctx, string(Photo), p))
}

// ReplyWithAudio sends an audio file given by file_id or URL.
func (r *Replier) ReplyWithAudio(ctx context.Context, audio string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["audio"] = audio
	return asMessage(r.Reply(ctx, string(Audio), p))
}

// ReplyWithVideo sends a video given by file_id or URL.
func (r *Replier) ReplyWithVideo(ctx context.Context, video string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["video"] = video
	return asMessage(r.Reply(ctx, string(Video), p))
}

// ReplyWithVoice sends a voice note given by file_id or URL.
func (r *Replier) ReplyWithVoice(ctx context.Context, voice string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["voice"] = voice
	return asMessage(r.Reply(ctx, string(Voice), p))
}

// ReplyWithDocument sends a document given by file_id or URL.
func (r *Replier) ReplyWithDocument(ctx context.Context, document string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["document"] = document
	return asMessage(r.Reply(ctx, string(Document), p))
}

// ReplyWithSticker sends a sticker given by file_id or URL.
func (r *Replier) ReplyWithSticker(ctx context.Context, sticker string, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["sticker"] = sticker
	return asMessage(r.Reply(ctx, string(Sticker), p))
}

// ReplyWithLocation sends a point on the map.
func (r *Replier) ReplyWithLocation(ctx context.Context, latitude, longitude float64, params api.Params) (*entity.Message, error) {
	p := params.Clone()
	p["latitude"] = latitude
	p["longitude"] = longitude
	return asMessage(r.Reply(ctx, string(Location), p))
}

// ReplyWithChatAction shows a status such as "typing" in the chat.
func (r *Replier) ReplyWithChatAction(ctx context.Context, action string) error {
	_, err := r.Reply(ctx, string(ChatAction), api.Params{"action": action})
	return err
}

// asMessage converts a reply result. Async clients return a nil result.
func asMessage(v any, err error) (*entity.Message, error) {
	if err != nil {
		return nil, err
	}
	e, _ := v.(*entity.Entity)
	return entity.AsMessage(e), nil
}
