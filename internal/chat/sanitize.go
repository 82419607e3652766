package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest message, in characters, sent to the model.
const MaxMessageLength = 1000

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTag    = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
	jsURI        = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandler = regexp.MustCompile(`(?i)(<[^<>]*?)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]*)`)
)

var patterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{scriptBlock, ""},
	{scriptTag, ""},
	{jsURI, ""},
	{eventHandler, "${1}"},
}

// Sanitize strips script elements, javascript: URIs and event handler
// attributes inside tags, trims surrounding space and truncates to
// MaxMessageLength. Stripping repeats until nothing changes, so fragments
// cannot join into a new match.
func Sanitize(s string) string {
	for {
		before := s
		for _, p := range patterns {
			s = p.re.ReplaceAllString(s, p.repl)
		}
		if s == before {
			break
		}
	}
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > MaxMessageLength {
		r := []rune(s)
		s = strings.TrimSpace(string(r[:MaxMessageLength]))
	}
	return s
}
