package entity_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/edgard/tgbotsdk/internal/entity"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

func TestMap_RoundTripPreservesEveryKey(t *testing.T) {
	t.Parallel()

	input := `{"update_id":7,"future_field":{"a":1},"message":{"message_id":1,"date":2,` +
		`"chat":{"id":5,"type":"private"},"text":"hi","brand_new":[1,2],"from":null}}`

	v, err := entity.Map(json.RawMessage(input), entity.KindUpdate)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	e, ok := v.(*entity.Entity)
	if !ok {
		t.Fatalf("Map() returned %T, want *entity.Entity", v)
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != input {
		t.Errorf("round trip changed payload\n got: %s\nwant: %s", out, input)
	}

	if got, want := e.Keys(), []string{"update_id", "future_field", "message"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	msg := e.Child("message")
	if msg.Kind() != entity.KindMessage {
		t.Errorf("message kind = %q, want %q", msg.Kind(), entity.KindMessage)
	}
	if msg.Child("chat").Kind() != entity.KindChat {
		t.Errorf("chat kind = %q, want %q", msg.Child("chat").Kind(), entity.KindChat)
	}
	if !msg.Has("from") || msg.Child("from") != nil {
		t.Error("null relation should be kept as a present, unhydrated field")
	}

	future, ok := e.Get("future_field").(map[string]any)
	if !ok || future["a"] != json.Number("1") {
		t.Errorf("Get(future_field) = %#v, want decoded object", e.Get("future_field"))
	}
}

func TestMap_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		kind  entity.Kind
		check func(t *testing.T, v any)
	}{
		{
			name: "untyped object",
			raw:  `{"ok":true,"n":3}`,
			kind: entity.KindNone,
			check: func(t *testing.T, v any) {
				want := map[string]any{"ok": true, "n": json.Number("3")}
				if !reflect.DeepEqual(v, want) {
					t.Errorf("got %#v, want %#v", v, want)
				}
			},
		},
		{
			name: "untyped scalar",
			raw:  `true`,
			kind: entity.KindNone,
			check: func(t *testing.T, v any) {
				if v != true {
					t.Errorf("got %#v, want true", v)
				}
			},
		},
		{
			name: "null",
			raw:  `null`,
			kind: entity.KindMessage,
			check: func(t *testing.T, v any) {
				if v != nil {
					t.Errorf("got %#v, want nil", v)
				}
			},
		},
		{
			name: "array keeps order",
			raw:  `[{"update_id":3},{"update_id":1},{"update_id":2}]`,
			kind: entity.KindUpdate,
			check: func(t *testing.T, v any) {
				list, ok := v.([]*entity.Entity)
				if !ok || len(list) != 3 {
					t.Fatalf("got %#v, want 3 entities", v)
				}
				for i, want := range []int64{3, 1, 2} {
					if got := list[i].Int64("update_id"); got != want {
						t.Errorf("list[%d].update_id = %d, want %d", i, got, want)
					}
				}
			},
		},
		{
			name: "empty array",
			raw:  `[]`,
			kind: entity.KindUpdate,
			check: func(t *testing.T, v any) {
				list, ok := v.([]*entity.Entity)
				if !ok || len(list) != 0 {
					t.Errorf("got %#v, want empty entity list", v)
				}
			},
		},
		{
			name: "repeated relation",
			raw:  `{"message_id":1,"photo":[{"file_id":"a"},{"file_id":"b"}]}`,
			kind: entity.KindMessage,
			check: func(t *testing.T, v any) {
				photos := v.(*entity.Entity).Children("photo")
				if len(photos) != 2 || photos[1].String("file_id") != "b" {
					t.Fatalf("photo = %#v, want two photo sizes", photos)
				}
				if photos[0].Kind() != entity.KindPhotoSize {
					t.Errorf("photo kind = %q, want %q", photos[0].Kind(), entity.KindPhotoSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := entity.Map(json.RawMessage(tt.raw), tt.kind)
			if err != nil {
				t.Fatalf("Map() error = %v", err)
			}
			tt.check(t, v)
		})
	}
}

func TestMap_ShapeMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		kind     entity.Kind
		wantPath string
		wantKind string
		wantGot  string
	}{
		{"scalar root", `"hello"`, entity.KindUser, "", "User", "string"},
		{"number root", `42`, entity.KindChat, "", "Chat", "number"},
		{"single relation given string", `{"message":{"from":"bob"}}`, entity.KindUpdate, "message.from", "User", "string"},
		{"repeated relation given object", `{"message":{"photo":{"file_id":"x"}}}`, entity.KindUpdate, "message.photo", "[]PhotoSize", "object"},
		{"repeated relation bad element", `{"message":{"photo":[{"file_id":"a"},"b"]}}`, entity.KindUpdate, "message.photo[1]", "PhotoSize", "string"},
		{"list bad element", `[{"update_id":1},3]`, entity.KindUpdate, "[1]", "Update", "number"},
		{"deep path", `{"callback_query":{"message":{"chat":[1]}}}`, entity.KindUpdate, "callback_query.message.chat", "Chat", "array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := entity.Map(json.RawMessage(tt.raw), tt.kind)
			var mapErr *apperrors.MappingError
			if !errors.As(err, &mapErr) {
				t.Fatalf("Map() error = %v, want MappingError", err)
			}
			if mapErr.Path != tt.wantPath || mapErr.Kind != tt.wantKind || mapErr.Got != tt.wantGot {
				t.Errorf("MappingError = {%q %q %q}, want {%q %q %q}",
					mapErr.Path, mapErr.Kind, mapErr.Got, tt.wantPath, tt.wantKind, tt.wantGot)
			}
			if apperrors.Code(err) != apperrors.CodeMapping {
				t.Errorf("Code() = %q, want %q", apperrors.Code(err), apperrors.CodeMapping)
			}
		})
	}
}

func TestMapEntity_RejectsArray(t *testing.T) {
	t.Parallel()

	if _, err := entity.MapEntity(json.RawMessage(`[]`), entity.KindUser); err == nil {
		t.Fatal("MapEntity() accepted an array")
	}
	if _, err := entity.MapEntities(json.RawMessage(`{}`), entity.KindUser); err == nil {
		t.Fatal("MapEntities() accepted an object")
	}
}

func TestGet_IdiomaticKeys(t *testing.T) {
	t.Parallel()

	e, err := entity.MapEntity(json.RawMessage(`{"message_id":10,"is_bot":true,"first_name":"Ann"}`), entity.KindNone)
	if err != nil {
		t.Fatalf("MapEntity() error = %v", err)
	}

	for _, key := range []string{"message_id", "messageId", "MessageID", "MessageId"} {
		if got := e.Int64(key); got != 10 {
			t.Errorf("Int64(%q) = %d, want 10", key, got)
		}
	}
	if !e.Bool("isBot") {
		t.Error("Bool(isBot) = false, want true")
	}
	if got := e.String("firstName"); got != "Ann" {
		t.Errorf("String(firstName) = %q, want Ann", got)
	}
	if e.Has("lastName") {
		t.Error("Has(lastName) = true for an absent field")
	}
}

func TestGet_ExactKeyWins(t *testing.T) {
	t.Parallel()

	e, err := entity.MapEntity(json.RawMessage(`{"messageId":1,"message_id":2}`), entity.KindNone)
	if err != nil {
		t.Fatalf("MapEntity() error = %v", err)
	}
	if got := e.Int64("messageId"); got != 1 {
		t.Errorf("Int64(messageId) = %d, want 1", got)
	}
	if got := e.Int64("message_id"); got != 2 {
		t.Errorf("Int64(message_id) = %d, want 2", got)
	}
}

func TestKeyTranslation(t *testing.T) {
	t.Parallel()

	if got := entity.WireKey("replyToMessage"); got != "reply_to_message" {
		t.Errorf("WireKey() = %q, want reply_to_message", got)
	}
	if got := entity.IdiomaticKey("reply_to_message"); got != "replyToMessage" {
		t.Errorf("IdiomaticKey() = %q, want replyToMessage", got)
	}
}

func TestRelations_ReturnsCopy(t *testing.T) {
	t.Parallel()

	rels := entity.Relations(entity.KindMessage)
	if rel := rels["photo"]; rel.Kind != entity.KindPhotoSize || !rel.Repeated {
		t.Fatalf("photo relation = %+v", rel)
	}
	delete(rels, "photo")
	if _, ok := entity.Relations(entity.KindMessage)["photo"]; !ok {
		t.Error("mutating the returned table changed the relation table")
	}
}
