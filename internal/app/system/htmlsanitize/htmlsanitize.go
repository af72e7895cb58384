// Package htmlsanitize cleans organizer-authored rich text such as job
// descriptions before it is stored or rendered.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func get() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "b", "strong", "i", "em", "u", "s",
			"ul", "ol", "li", "blockquote", "code", "pre",
			"h3", "h4", "h5", "h6", "hr")
		p.AllowAttrs("href", "title").OnElements("a")
		p.AllowStandardURLs()
		policy = p
	})
	return policy
}

// Sanitize strips everything but simple formatting, lists and links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(get().Sanitize(s))
}

// SanitizeToHTML sanitizes s and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no markup at all.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}

// Description renders a job description: plain text keeps its line breaks,
// markup is sanitized.
func Description(s string) template.HTML {
	if IsPlainText(s) {
		escaped := html.EscapeString(strings.TrimSpace(s))
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	}
	return SanitizeToHTML(s)
}
