package command

import (
	"context"
	"fmt"
	"strings"
)

// HelpCommand replies with the list of registered commands.
type HelpCommand struct {
	Base
	registry *Registry
}

// NewHelpCommand creates the "help" command (alias "listcommands") for registry.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		Base: NewBase(Definition{
			Name:        "help",
			Aliases:     []string{"listcommands"},
			Description: "Get a list of commands",
		}),
		registry: registry,
	}
}

// Handle sends one "/name - description" line per command.
func (c *HelpCommand) Handle(ctx context.Context, req *Request) (Result, error) {
	if _, err := req.ReplyWithMessage(ctx, c.Text(), nil); err != nil {
		return Continue, fmt.Errorf("failed to send help: %w", err)
	}
	return Continue, nil
}

// Text renders the command list.
func (c *HelpCommand) Text() string {
	prefix := c.registry.Prefix()

	var b strings.Builder
	for _, d := range c.registry.Descriptors() {
		fmt.Fprintf(&b, "%s%s - %s", prefix, d.Name, d.Description)
		if len(d.Aliases) > 0 {
			aliases := make([]string, len(d.Aliases))
			for i, a := range d.Aliases {
				aliases[i] = prefix + a
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(aliases, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}
