// Package sanitize converts user and operator text between plain text,
// Markdown and the HTML subset accepted by the Bot API.
package sanitize

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	blockBreaks    = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>|</?blockquote>|</?ul>|</?ol>`)
	repeatedBreaks = regexp.MustCompile(`\n\s*\n+`)
	listItems      = regexp.MustCompile(`<li>\s*`)
	codeBlocks     = regexp.MustCompile(`(?s)<pre><code[^>]*>(.*?)</code></pre>`)
)

// telegramTags lists the formatting elements of the Bot API "HTML" parse mode.
var telegramTags = []string{"b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "a", "code", "pre", "blockquote", "tg-spoiler"}

// Tag renames from goldmark output to the Bot API's preferred spelling.
var telegramRenames = strings.NewReplacer(
	"<strong>", "<b>", "</strong>", "</b>",
	"<em>", "<i>", "</em>", "</i>",
	"<del>", "<s>", "</del>", "</s>",
)

// Policy strips or converts markup.
type Policy struct {
	strict   *bluemonday.Policy
	telegram *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewTelegramPolicy creates a Policy for Bot API text.
func NewTelegramPolicy() *Policy {
	telegram := bluemonday.NewPolicy()
	telegram.AllowElements(telegramTags...)
	telegram.AllowAttrs("href").OnElements("a")
	telegram.AllowURLSchemes("http", "https", "tg", "mailto")
	telegram.RequireParseableURLs(true)

	return &Policy{
		strict:   bluemonday.StrictPolicy(),
		telegram: telegram,
		markdown: goldmark.New(),
	}
}

// SanitizeText strips HTML and Markdown from text, keeping paragraph
// breaks. The result is plain text, safe to log or to send without a
// parse mode.
func (p *Policy) SanitizeText(text string) string {
	if text == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return p.strict.Sanitize(text)
	}

	htmlText := blockBreaks.ReplaceAllString(buf.String(), "\n")
	htmlText = listItems.ReplaceAllString(htmlText, "- ")
	sanitized := p.strict.Sanitize(htmlText)
	sanitized = repeatedBreaks.ReplaceAllString(sanitized, "\n\n")
	return strings.TrimSpace(html.UnescapeString(sanitized))
}

// MarkdownToHTML renders Markdown text as Bot API HTML. Elements the Bot
// API does not support are dropped, keeping their text.
func (p *Policy) MarkdownToHTML(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}

	out := codeBlocks.ReplaceAllString(buf.String(), "<pre>$1</pre>")
	out = listItems.ReplaceAllString(out, "• ")
	out = strings.NewReplacer("</li>", "", "<p>", "", "</p>", "\n").Replace(out)
	out = p.telegram.Sanitize(out)
	out = telegramRenames.Replace(out)
	out = repeatedBreaks.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}
