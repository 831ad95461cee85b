package command

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches "{name}" and "{name: expr}" in a command pattern.
var placeholderRe = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*((?:[^{}]|\{[^{}]*\})+?))?\s*\}`)

const defaultArgExpr = `\S+`

// argPattern extracts named arguments from the argument string. Every
// argument is optional; arguments are matched left to right, separated
// by whitespace, and trailing text is ignored.
type argPattern struct {
	re    *regexp.Regexp
	names []string
}

func compilePattern(pattern string) (*argPattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}

	matches := placeholderRe.FindAllStringSubmatch(pattern, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pattern %q declares no arguments", pattern)
	}

	var b strings.Builder
	b.WriteString(`^`)
	names := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		name, expr := m[1], strings.TrimSpace(m[2])
		if seen[name] {
			return nil, fmt.Errorf("pattern %q repeats argument %q", pattern, name)
		}
		seen[name] = true
		if expr == "" {
			expr = defaultArgExpr
		}
		if _, err := regexp.Compile(expr); err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		fmt.Fprintf(&b, `(?:\s*(?P<%s>%s))?`, name, expr)
		names = append(names, name)
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return &argPattern{re: re, names: names}, nil
}

// parse returns the captured arguments. Unmatched arguments are absent.
func (p *argPattern) parse(arguments string) map[string]string {
	if p == nil {
		return nil
	}
	match := p.re.FindStringSubmatch(arguments)
	if match == nil {
		return nil
	}

	out := make(map[string]string, len(p.names))
	for i, group := range p.re.SubexpNames() {
		if group == "" || match[i] == "" {
			continue
		}
		out[group] = match[i]
	}
	return out
}
