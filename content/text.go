package content

import (
	"bytes"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

const (
	ExcerptLength  = 200
	WordsPerMinute = 200
)

var blockTags = map[string]bool{
	"p": true, "br": true, "li": true, "pre": true, "blockquote": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true, "ul": true, "ol": true, "div": true,
}

// PlainText renders markdown and returns its visible text with whitespace collapsed.
func PlainText(markdown string) string {
	var rendered bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &rendered); err != nil {
		return strings.Join(strings.Fields(markdown), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(&rendered)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

// Excerpt returns the plain text of markdown cut to ExcerptLength characters,
// with "..." appended only when something was cut.
func Excerpt(markdown string) string {
	plain := []rune(PlainText(markdown))
	if len(plain) <= ExcerptLength {
		return string(plain)
	}
	return string(plain[:ExcerptLength]) + "..."
}

// ReadingTime is the word count of the plain text divided by WordsPerMinute, rounded up.
func ReadingTime(markdown string) int {
	words := len(strings.Fields(PlainText(markdown)))
	return int(math.Ceil(float64(words) / WordsPerMinute))
}
