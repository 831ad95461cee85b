package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/container"
	"github.com/edgard/tgbotsdk/internal/conversation"
	"github.com/edgard/tgbotsdk/internal/entity"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
	"github.com/edgard/tgbotsdk/internal/state"
)

type nopCaller struct {
	texts []string
}

func (c *nopCaller) Request(_ context.Context, _ string, params api.Params, _ entity.Kind) (any, error) {
	if text, ok := params["text"].(string); ok {
		c.texts = append(c.texts, text)
	}
	return nil, nil
}

type failingStore struct {
	state.Store
}

func (failingStore) CurrentConversation(context.Context, int64) (string, bool, error) {
	return "", false, errors.New("store down")
}

const userID = 42

func messageFrom(t *testing.T, text string) *entity.Update {
	t.Helper()

	body := fmt.Sprintf(`{"update_id":1,"message":{"message_id":1,"from":{"id":%d},"chat":{"id":%d,"type":"private"},"text":%q}}`,
		userID, userID, text)
	u, err := entity.ParseUpdate([]byte(body))
	if err != nil {
		t.Fatalf("ParseUpdate() error = %v", err)
	}
	return u
}

func marker(t *testing.T, s state.Store) string {
	t.Helper()

	id, _, err := s.CurrentConversation(context.Background(), userID)
	if err != nil {
		t.Fatalf("CurrentConversation() error = %v", err)
	}
	return id
}

func TestEngine_Transitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := state.NewMemoryStore()
	var ran []string

	engine := conversation.NewEngine(store, &nopCaller{})
	_ = engine.Add(conversation.New("A", func(_ context.Context, turn *conversation.Turn) error {
		ran = append(ran, "A:"+turn.Text())
		turn.Next("B")
		return nil
	}))
	_ = engine.Add(conversation.New("B", func(_ context.Context, turn *conversation.Turn) error {
		ran = append(ran, "B:"+turn.Text())
		if turn.Text() == "done" {
			turn.End()
		}
		return nil
	}))

	if err := engine.Start(ctx, userID, "A"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	steps := []struct {
		text       string
		wantMarker string
	}{
		{"one", "B"},
		{"two", "B"},
		{"done", ""},
	}
	for _, step := range steps {
		outcome, err := engine.Dispatch(ctx, messageFrom(t, step.text))
		if err != nil || outcome != conversation.Handled {
			t.Fatalf("Dispatch(%q) = %v, %v", step.text, outcome, err)
		}
		if got := marker(t, store); got != step.wantMarker {
			t.Errorf("after %q marker = %q, want %q", step.text, got, step.wantMarker)
		}
	}

	outcome, err := engine.Dispatch(ctx, messageFrom(t, "after"))
	if err != nil || outcome != conversation.Idle {
		t.Errorf("Dispatch() with no marker = %v, %v, want idle", outcome, err)
	}

	want := []string{"A:one", "B:two", "B:done"}
	if fmt.Sprint(ran) != fmt.Sprint(want) {
		t.Errorf("ran = %v, want %v", ran, want)
	}
}

func TestEngine_SoftMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := state.NewMemoryStore()
	_ = store.SetCurrentConversation(ctx, userID, "never.registered")

	engine := conversation.NewEngine(store, &nopCaller{})
	outcome, err := engine.Dispatch(ctx, messageFrom(t, "hello"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v, want nil", err)
	}
	if outcome != conversation.OK {
		t.Errorf("Dispatch() = %v, want ok", outcome)
	}
	if got := marker(t, store); got != "never.registered" {
		t.Errorf("soft miss changed the marker to %q", got)
	}
}

func TestEngine_FailedTurnKeepsMarker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := state.NewMemoryStore()
	boom := errors.New("boom")

	engine := conversation.NewEngine(store, &nopCaller{})
	_ = engine.Add(conversation.New("A", func(_ context.Context, turn *conversation.Turn) error {
		turn.Next("B")
		return boom
	}))
	_ = engine.Start(ctx, userID, "A")

	outcome, err := engine.Dispatch(ctx, messageFrom(t, "x"))
	if !errors.Is(err, boom) || outcome != conversation.Handled {
		t.Fatalf("Dispatch() = %v, %v, want handled with boom", outcome, err)
	}
	if got := marker(t, store); got != "A" {
		t.Errorf("marker = %q, want A", got)
	}
}

func TestEngine_Replies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	caller := &nopCaller{}
	engine := conversation.NewEngine(state.NewMemoryStore(), caller)
	_ = engine.Add(conversation.New("echo", func(ctx context.Context, turn *conversation.Turn) error {
		if turn.User().ID() != userID {
			return fmt.Errorf("user = %d", turn.User().ID())
		}
		_, err := turn.ReplyWithMessage(ctx, "echo: "+turn.Text(), nil)
		return err
	}))
	_ = engine.Start(ctx, userID, "echo")

	if _, err := engine.Dispatch(ctx, messageFrom(t, "hi")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(caller.texts) != 1 || caller.texts[0] != "echo: hi" {
		t.Errorf("sent %v", caller.texts)
	}
}

func TestEngine_Registration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := conversation.NewEngine(state.NewMemoryStore(), &nopCaller{})
	conv := conversation.New("A", func(context.Context, *conversation.Turn) error { return nil })

	if err := engine.Add(conv); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := engine.Add(conv); apperrors.Code(err) != apperrors.CodeConfiguration {
		t.Errorf("duplicate Add() error = %v", err)
	}
	if err := engine.Start(ctx, userID, "missing"); apperrors.Code(err) != apperrors.CodeConfiguration {
		t.Errorf("Start() of unregistered conversation error = %v", err)
	}
	if !engine.Remove("A") || engine.Has("A") {
		t.Error("Remove() did not unregister A")
	}
}

func TestEngine_AddConstructor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	builds := 0
	broken := false
	resolver := container.ResolverFunc(func(_ context.Context, id string) (any, error) {
		switch {
		case id == "wrong":
			return 3, nil
		case broken:
			return nil, errors.New("dependency missing")
		}
		builds++
		return conversation.New(id, func(context.Context, *conversation.Turn) error { return nil }), nil
	})

	store := state.NewMemoryStore()
	engine := conversation.NewEngine(store, &nopCaller{}, conversation.WithResolver(resolver))
	if err := engine.AddConstructor(ctx, "built"); err != nil {
		t.Fatalf("AddConstructor() error = %v", err)
	}
	if err := engine.AddConstructor(ctx, "wrong"); apperrors.Code(err) != apperrors.CodeConfiguration {
		t.Errorf("AddConstructor(wrong) error = %v", err)
	}

	_ = engine.Start(ctx, userID, "built")
	if _, err := engine.Dispatch(ctx, messageFrom(t, "x")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if builds != 2 {
		t.Errorf("constructor ran %d times, want 2", builds)
	}

	broken = true
	_, err := engine.Dispatch(ctx, messageFrom(t, "x"))
	var dispatchErr *apperrors.DispatchError
	if !errors.As(err, &dispatchErr) || dispatchErr.Handler != "built" {
		t.Errorf("Dispatch() error = %v, want DispatchError for built", err)
	}
}

func TestEngine_IgnoresUpdatesWithoutSender(t *testing.T) {
	t.Parallel()

	engine := conversation.NewEngine(failingStore{}, &nopCaller{})
	u, err := entity.ParseUpdate([]byte(`{"update_id":1,"channel_post":{"message_id":1,"chat":{"id":-1,"type":"channel"},"text":"x"}}`))
	if err != nil {
		t.Fatalf("ParseUpdate() error = %v", err)
	}
	if outcome, err := engine.Dispatch(context.Background(), u); outcome != conversation.Idle || err != nil {
		t.Errorf("Dispatch() = %v, %v, want idle", outcome, err)
	}

	if _, err := engine.Dispatch(context.Background(), messageFrom(t, "x")); err == nil {
		t.Error("Dispatch() should report a failing store")
	}
}

func TestTurn_Outcome(t *testing.T) {
	t.Parallel()

	u, _ := entity.ParseUpdate([]byte(`{"update_id":1,"callback_query":{"id":"q","from":{"id":1},"data":"yes"}}`))
	turn := conversation.NewTurn(&nopCaller{}, u, "A")
	if turn.Text() != "yes" {
		t.Errorf("Text() = %q, want callback data", turn.Text())
	}

	if _, changed := turn.Outcome(); changed {
		t.Error("untouched turn reports a change")
	}
	turn.Next("A")
	if _, changed := turn.Outcome(); changed {
		t.Error("Next to the current conversation reports a change")
	}
	turn.Next("B")
	turn.End()
	if next, changed := turn.Outcome(); !changed || next != "" {
		t.Errorf("Outcome() = %q, %v, want end", next, changed)
	}
}
