package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/edgard/tgbotsdk/internal/container"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

// DefaultPrefix starts a command invocation unless configured otherwise.
const DefaultPrefix = "/"

var (
	errNoConversations = errors.New("no conversation engine configured")
	errNoSender        = errors.New("update has no sender")
)

// Descriptor is the public description of a registered command.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
}

type entry struct {
	Descriptor
	pattern *argPattern
	// instance is set for commands added as values; id for commands
	// constructed through the resolver on every dispatch.
	instance Command
	id       string
}

// Invocation is a resolved command invocation.
type Invocation struct {
	// Name is the registered command name, or the typed name when
	// Fallback is set.
	Name string
	// Arguments is the text after the command token, trimmed.
	Arguments string
	// Fallback reports that the default command handles an unknown name.
	Fallback bool

	entry *entry
}

// Registry holds the registered commands.
type Registry struct {
	prefix      string
	botUsername string
	resolver    container.Resolver
	logger      *slog.Logger

	mu       sync.RWMutex
	commands map[string]*entry
	aliases  map[string]string
	fallback *entry
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPrefix sets the command prefix (default "/").
func WithPrefix(prefix string) RegistryOption {
	return func(r *Registry) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithBotUsername makes "/cmd@OtherBot" invocations not match. Without
// it any "@username" suffix is stripped and ignored.
func WithBotUsername(username string) RegistryOption {
	return func(r *Registry) {
		r.botUsername = strings.TrimPrefix(username, "@")
	}
}

// WithResolver sets the resolver used by AddConstructor and dispatch.
func WithResolver(resolver container.Resolver) RegistryOption {
	return func(r *Registry) {
		r.resolver = resolver
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		prefix:   DefaultPrefix,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		commands: make(map[string]*entry),
		aliases:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "command_registry")
	return r
}

// Prefix returns the configured command prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// Add registers cmd. Names and aliases are case-sensitive and must be
// unique across the registry.
func (r *Registry) Add(cmd Command) error {
	if cmd == nil {
		return apperrors.NewConfigurationError("add nil command", nil)
	}
	e, err := newEntry(cmd)
	if err != nil {
		return err
	}
	e.instance = cmd
	return r.insert(e)
}

// AddAll registers every command, stopping at the first failure.
func (r *Registry) AddAll(cmds ...Command) error {
	for _, cmd := range cmds {
		if err := r.Add(cmd); err != nil {
			return err
		}
	}
	return nil
}

// AddConstructor registers the command the resolver builds for id. The
// command is resolved once now to validate it and read its description,
// and again for every dispatch.
func (r *Registry) AddConstructor(ctx context.Context, id string) error {
	cmd, err := r.resolve(ctx, id)
	if err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("command %s", id), err)
	}
	e, err := newEntry(cmd)
	if err != nil {
		return err
	}
	e.id = id
	return r.insert(e)
}

// SetDefault registers the command that handles unknown command names.
// A nil cmd removes it.
func (r *Registry) SetDefault(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd == nil {
		r.fallback = nil
		return nil
	}
	e, err := newEntry(cmd)
	if err != nil {
		return err
	}
	e.instance = cmd
	r.fallback = e
	return nil
}

// Remove unregisters the command named name together with its aliases.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.commands[name]
	if !ok {
		return false
	}
	delete(r.commands, name)
	for _, alias := range e.Aliases {
		delete(r.aliases, alias)
	}
	return true
}

// Descriptors lists the registered commands sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.commands))
	for _, e := range r.commands {
		d := e.Descriptor
		d.Aliases = slices.Clone(e.Aliases)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve parses text as a command invocation. It reports false when
// text is not an invocation or names no command and no default is set.
func (r *Registry) Resolve(text string) (*Invocation, bool) {
	token, arguments, ok := r.split(text)
	if !ok {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.commands[token]; ok {
		return &Invocation{Name: e.Name, Arguments: arguments, entry: e}, true
	}
	if name, ok := r.aliases[token]; ok {
		e := r.commands[name]
		return &Invocation{Name: e.Name, Arguments: arguments, entry: e}, true
	}
	if r.fallback != nil {
		return &Invocation{Name: token, Arguments: arguments, Fallback: true, entry: r.fallback}, true
	}
	return nil, false
}

// split extracts the command name and argument string from text.
func (r *Registry) split(text string) (name, arguments string, ok bool) {
	rest, found := strings.CutPrefix(text, r.prefix)
	if !found {
		return "", "", false
	}

	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	name, arguments = rest[:end], strings.TrimSpace(rest[end:])

	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		name = name[:at]
		if r.botUsername != "" && !strings.EqualFold(target, r.botUsername) {
			return "", "", false
		}
	}
	if name == "" {
		return "", "", false
	}
	return name, arguments, true
}

// instance returns the command for inv, constructing it when it was
// registered by identifier.
func (r *Registry) instance(ctx context.Context, inv *Invocation) (Command, error) {
	if inv.entry.instance != nil {
		return inv.entry.instance, nil
	}
	cmd, err := r.resolve(ctx, inv.entry.id)
	if err != nil {
		return nil, apperrors.NewDispatchError(inv.entry.id, "construction failed", err)
	}
	return cmd, nil
}

func (r *Registry) resolve(ctx context.Context, id string) (Command, error) {
	if r.resolver == nil {
		return nil, errors.New("no resolver configured")
	}
	v, err := r.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	cmd, ok := v.(Command)
	if !ok {
		return nil, fmt.Errorf("%T does not implement Command", v)
	}
	return cmd, nil
}

func (r *Registry) insert(e *entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(e.Name) {
		return apperrors.NewConfigurationError(fmt.Sprintf("command %s: name already registered", e.Name), nil)
	}
	for i, alias := range e.Aliases {
		if alias == e.Name || slices.Contains(e.Aliases[:i], alias) || r.taken(alias) {
			return apperrors.NewConfigurationError(fmt.Sprintf("command %s: alias %s already registered", e.Name, alias), nil)
		}
	}

	r.commands[e.Name] = e
	for _, alias := range e.Aliases {
		r.aliases[alias] = e.Name
	}
	r.logger.Debug("Registered command", "command", e.Name, "aliases", e.Aliases)
	return nil
}

func (r *Registry) taken(name string) bool {
	_, isName := r.commands[name]
	_, isAlias := r.aliases[name]
	return isName || isAlias
}

func newEntry(cmd Command) (*entry, error) {
	name := cmd.Name()
	if err := validName(name); err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("command %q", name), err)
	}
	aliases := slices.Clone(cmd.Aliases())
	for _, alias := range aliases {
		if err := validName(alias); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("command %s: alias %q", name, alias), err)
		}
	}

	e := &entry{Descriptor: Descriptor{Name: name, Aliases: aliases, Description: cmd.Description()}}
	if p, ok := cmd.(Patterned); ok {
		pattern, err := compilePattern(p.Pattern())
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("command %s", name), err)
		}
		e.pattern = pattern
	}
	return e, nil
}

func validName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	if strings.ContainsFunc(name, unicode.IsSpace) || strings.Contains(name, "@") {
		return errors.New("name contains whitespace or @")
	}
	return nil
}
