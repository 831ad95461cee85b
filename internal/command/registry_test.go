package command_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/edgard/tgbotsdk/internal/command"
	"github.com/edgard/tgbotsdk/internal/container"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

func noop(context.Context, *command.Request) (command.Result, error) {
	return command.Continue, nil
}

func newRegistry(t *testing.T, opts ...command.RegistryOption) *command.Registry {
	t.Helper()

	r := command.NewRegistry(opts...)
	err := r.AddAll(
		command.New(command.Definition{Name: "start", Description: "Start the bot"}, noop),
		command.New(command.Definition{Name: "settings", Aliases: []string{"prefs", "config"}, Description: "Settings"}, noop),
	)
	if err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}
	return r
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		opts     []command.RegistryOption
		wantOK   bool
		wantName string
		wantArgs string
	}{
		{name: "plain", text: "/start", wantOK: true, wantName: "start"},
		{name: "username suffix", text: "/start@MyBot", wantOK: true, wantName: "start"},
		{name: "arguments", text: "/start  hello world ", wantOK: true, wantName: "start", wantArgs: "hello world"},
		{name: "newline separates arguments", text: "/start\nline", wantOK: true, wantName: "start", wantArgs: "line"},
		{name: "alias", text: "/prefs dark", wantOK: true, wantName: "settings", wantArgs: "dark"},
		{name: "unknown", text: "/unknown"},
		{name: "not a command", text: "start"},
		{name: "leading space", text: " /start"},
		{name: "bare prefix", text: "/"},
		{name: "only suffix", text: "/@MyBot"},
		{name: "case sensitive", text: "/Start"},
		{
			name:     "matching bot username",
			text:     "/start@mybot now",
			opts:     []command.RegistryOption{command.WithBotUsername("@MyBot")},
			wantOK:   true,
			wantName: "start",
			wantArgs: "now",
		},
		{
			name: "other bot username",
			text: "/start@OtherBot",
			opts: []command.RegistryOption{command.WithBotUsername("MyBot")},
		},
		{
			name:     "custom prefix",
			text:     "!start",
			opts:     []command.RegistryOption{command.WithPrefix("!")},
			wantOK:   true,
			wantName: "start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv, ok := newRegistry(t, tt.opts...).Resolve(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if inv.Name != tt.wantName || inv.Arguments != tt.wantArgs {
				t.Errorf("Resolve(%q) = %q %q, want %q %q", tt.text, inv.Name, inv.Arguments, tt.wantName, tt.wantArgs)
			}
		})
	}
}

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	if _, ok := r.Resolve("/unknown"); ok {
		t.Fatal("Resolve() matched without a default command")
	}

	if err := r.SetDefault(command.New(command.Definition{Name: "fallback"}, noop)); err != nil {
		t.Fatalf("SetDefault() error = %v", err)
	}
	inv, ok := r.Resolve("/unknown arg")
	if !ok || !inv.Fallback || inv.Name != "unknown" || inv.Arguments != "arg" {
		t.Fatalf("Resolve() = %+v, %v, want default invocation", inv, ok)
	}

	inv, ok = r.Resolve("/start")
	if !ok || inv.Fallback {
		t.Errorf("a registered name should win over the default")
	}
}

func TestRegistry_Conflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  command.Definition
	}{
		{"duplicate name", command.Definition{Name: "start"}},
		{"name clashes with alias", command.Definition{Name: "prefs"}},
		{"alias clashes with name", command.Definition{Name: "other", Aliases: []string{"start"}}},
		{"alias clashes with alias", command.Definition{Name: "other", Aliases: []string{"config"}}},
		{"alias equals own name", command.Definition{Name: "other", Aliases: []string{"other"}}},
		{"repeated alias", command.Definition{Name: "other", Aliases: []string{"o", "o"}}},
		{"empty name", command.Definition{Name: ""}},
		{"name with space", command.Definition{Name: "two words"}},
		{"bad pattern", command.Definition{Name: "other", Pattern: "{n: [}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRegistry(t)
			err := r.Add(command.New(tt.def, noop))
			var cfgErr *apperrors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Add() error = %v, want ConfigurationError", err)
			}
			if got := len(r.Descriptors()); got != 2 {
				t.Errorf("registry has %d commands after a failed Add, want 2", got)
			}
		})
	}
}

func TestRegistry_Remove(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	if !r.Remove("settings") {
		t.Fatal("Remove(settings) = false")
	}
	if r.Remove("settings") {
		t.Error("second Remove(settings) = true")
	}
	if _, ok := r.Resolve("/prefs"); ok {
		t.Error("alias still resolves after Remove")
	}
	if err := r.Add(command.New(command.Definition{Name: "prefs"}, noop)); err != nil {
		t.Errorf("alias name not released: %v", err)
	}
}

func TestRegistry_Descriptors(t *testing.T) {
	t.Parallel()

	got := newRegistry(t).Descriptors()
	want := []command.Descriptor{
		{Name: "settings", Aliases: []string{"prefs", "config"}, Description: "Settings"},
		{Name: "start", Description: "Start the bot"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Descriptors() = %+v, want %+v", got, want)
	}
}

func TestRegistry_AddConstructor(t *testing.T) {
	t.Parallel()

	built := 0
	resolver := container.ResolverFunc(func(_ context.Context, id string) (any, error) {
		switch id {
		case "greet":
			built++
			return command.New(command.Definition{Name: "greet"}, noop), nil
		case "not-a-command":
			return "text", nil
		default:
			return nil, errors.New("unknown id")
		}
	})
	r := command.NewRegistry(command.WithResolver(resolver))

	if err := r.AddConstructor(context.Background(), "greet"); err != nil {
		t.Fatalf("AddConstructor() error = %v", err)
	}
	if built != 1 {
		t.Errorf("constructor ran %d times at registration, want 1", built)
	}
	if _, ok := r.Resolve("/greet"); !ok {
		t.Error("constructed command does not resolve")
	}

	for _, id := range []string{"not-a-command", "missing"} {
		err := r.AddConstructor(context.Background(), id)
		if apperrors.Code(err) != apperrors.CodeConfiguration {
			t.Errorf("AddConstructor(%q) error = %v, want configuration error", id, err)
		}
	}

	if err := command.NewRegistry().AddConstructor(context.Background(), "greet"); err == nil {
		t.Error("AddConstructor() without a resolver succeeded")
	}
}
