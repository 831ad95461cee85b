package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/edgard/tgbotsdk/internal/api"
	"github.com/edgard/tgbotsdk/internal/command"
	"github.com/edgard/tgbotsdk/internal/conversation"
	"github.com/edgard/tgbotsdk/internal/dispatch"
	"github.com/edgard/tgbotsdk/internal/entity"
	"github.com/edgard/tgbotsdk/internal/events"
	"github.com/edgard/tgbotsdk/internal/state"
)

type nopCaller struct{}

func (nopCaller) Request(context.Context, string, api.Params, entity.Kind) (any, error) {
	return nil, nil
}

type recordingConfirmer struct {
	calls []int64
	err   error
}

func (c *recordingConfirmer) ConfirmUpdate(_ context.Context, highestID int64) error {
	c.calls = append(c.calls, highestID)
	return c.err
}

func update(t *testing.T, id int64, text string) *entity.Update {
	t.Helper()

	body := fmt.Sprintf(`{"update_id":%d,"message":{"message_id":%d,"from":{"id":7},"chat":{"id":7,"type":"private"},"text":%q}}`, id, id, text)
	u, err := entity.ParseUpdate([]byte(body))
	if err != nil {
		t.Fatalf("ParseUpdate() error = %v", err)
	}
	return u
}

// harness wires a real bus, engine and emitter, recording what ran.
type harness struct {
	log        []string
	store      *state.MemoryStore
	confirmer  *recordingConfirmer
	dispatcher *dispatch.Dispatcher
	emitter    *events.Emitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{store: state.NewMemoryStore(), confirmer: &recordingConfirmer{}}

	registry := command.NewRegistry()
	engine := conversation.NewEngine(h.store, nopCaller{})
	bus := command.NewBus(registry, nopCaller{}, command.WithConversationStarter(engine))

	cmds := []command.Command{
		command.New(command.Definition{Name: "go"}, func(_ context.Context, req *command.Request) (command.Result, error) {
			h.log = append(h.log, "cmd:go")
			return command.Continue, nil
		}),
		command.New(command.Definition{Name: "halt"}, func(context.Context, *command.Request) (command.Result, error) {
			h.log = append(h.log, "cmd:halt")
			return command.Stop, nil
		}),
		command.New(command.Definition{Name: "fail"}, func(context.Context, *command.Request) (command.Result, error) {
			h.log = append(h.log, "cmd:fail")
			return command.Continue, errors.New("command failed")
		}),
		command.New(command.Definition{Name: "survey"}, func(ctx context.Context, req *command.Request) (command.Result, error) {
			h.log = append(h.log, "cmd:survey")
			return command.Continue, req.StartConversation(ctx, "A")
		}),
	}
	if err := registry.AddAll(cmds...); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}

	_ = engine.Add(conversation.New("A", func(_ context.Context, turn *conversation.Turn) error {
		h.log = append(h.log, "conv:A:"+turn.Text())
		turn.Next("B")
		return nil
	}))
	_ = engine.Add(conversation.New("B", func(_ context.Context, turn *conversation.Turn) error {
		h.log = append(h.log, "conv:B:"+turn.Text())
		turn.End()
		return nil
	}))

	h.emitter = events.NewEmitter()
	h.emitter.On(events.EventUpdateReceived, func(_ context.Context, u *entity.Update) error {
		h.log = append(h.log, fmt.Sprintf("listener:%d", u.ID()))
		return nil
	})

	h.dispatcher = dispatch.New(
		dispatch.WithCommands(bus),
		dispatch.WithConversations(engine),
		dispatch.WithEmitter(h.emitter),
		dispatch.WithConfirmer(h.confirmer),
	)
	return h
}

func (h *harness) trace() string {
	return strings.Join(h.log, " ")
}

func TestProcessUpdates_StageOrdering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		marks string
		text  string
		want  string
	}{
		{"command continues to listeners", "", "/go", "cmd:go listener:1"},
		{"stop skips listeners", "", "/halt", "cmd:halt"},
		{"command excludes conversation", "A", "/go", "cmd:go listener:1"},
		{"plain text without conversation", "", "hello", "listener:1"},
		{"plain text reaches conversation", "A", "hello", "conv:A:hello listener:1"},
		{"failing command still notifies listeners", "", "/fail", "cmd:fail listener:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			if tt.marks != "" {
				_ = h.store.SetCurrentConversation(context.Background(), 7, tt.marks)
			}
			_, _ = h.dispatcher.ProcessUpdates(context.Background(), []*entity.Update{update(t, 1, tt.text)})
			if got := h.trace(); got != tt.want {
				t.Errorf("trace = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessUpdates_SortsAndConfirms(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	batch := []*entity.Update{update(t, 12, "c"), update(t, 10, "a"), nil, update(t, 11, "b")}

	got, err := h.dispatcher.ProcessUpdates(context.Background(), batch)
	if err != nil {
		t.Fatalf("ProcessUpdates() error = %v", err)
	}
	if len(got) != 3 || got[0].ID() != 10 || got[1].ID() != 11 || got[2].ID() != 12 {
		t.Errorf("ProcessUpdates() order = %v", got)
	}
	if want := "listener:10 listener:11 listener:12"; h.trace() != want {
		t.Errorf("trace = %q, want %q", h.trace(), want)
	}
	if len(h.confirmer.calls) != 1 || h.confirmer.calls[0] != 12 {
		t.Errorf("confirm calls = %v, want [12]", h.confirmer.calls)
	}
}

func TestProcessUpdates_FailureDoesNotStallBatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	boom := errors.New("listener failed")
	h.emitter.On(events.EventUpdateReceived, func(_ context.Context, u *entity.Update) error {
		if u.ID() == 2 {
			return boom
		}
		return nil
	})

	batch := []*entity.Update{update(t, 1, "/fail"), update(t, 2, "x"), update(t, 3, "/go")}
	_, err := h.dispatcher.ProcessUpdates(context.Background(), batch)
	if err == nil {
		t.Fatal("ProcessUpdates() error = nil, want aggregated failures")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the listener failure", err)
	}
	for _, want := range []string{"update 1:", "update 2:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "update 3:") {
		t.Errorf("error %q blames a successful update", err)
	}
	if !strings.Contains(h.trace(), "cmd:go listener:3") {
		t.Errorf("update 3 was not processed: %q", h.trace())
	}
	if len(h.confirmer.calls) != 1 || h.confirmer.calls[0] != 3 {
		t.Errorf("confirm calls = %v, want [3]", h.confirmer.calls)
	}
}

func TestProcessUpdates_ConversationAcrossBatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	batch := []*entity.Update{update(t, 1, "/survey"), update(t, 2, "first"), update(t, 3, "second"), update(t, 4, "third")}
	if _, err := h.dispatcher.ProcessUpdates(context.Background(), batch); err != nil {
		t.Fatalf("ProcessUpdates() error = %v", err)
	}

	want := "cmd:survey listener:1 conv:A:first listener:2 conv:B:second listener:3 listener:4"
	if got := h.trace(); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestProcessUpdates_ConfirmError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.confirmer.err = errors.New("network down")
	_, err := h.dispatcher.ProcessUpdates(context.Background(), []*entity.Update{update(t, 5, "x")})
	if err == nil || !strings.Contains(err.Error(), "network down") {
		t.Errorf("ProcessUpdates() error = %v, want confirm failure", err)
	}
}

func TestProcessUpdates_Empty(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got, err := h.dispatcher.ProcessUpdates(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("ProcessUpdates(nil) = %v, %v", got, err)
	}
	if len(h.confirmer.calls) != 0 {
		t.Error("an empty batch was confirmed")
	}
}

func TestProcessUpdate_WithoutStages(t *testing.T) {
	t.Parallel()

	if err := dispatch.New().ProcessUpdate(context.Background(), update(t, 1, "/go")); err != nil {
		t.Errorf("ProcessUpdate() error = %v", err)
	}
}
