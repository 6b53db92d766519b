package extract

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"
)

var hashtagRe = regexp.MustCompile(`#[\w\x{0590}-\x{05ff}]+`)

// Hashtags returns every hashtag occurrence in content, lower-cased, in order.
func Hashtags(content string) []string {
	tags := hashtagRe.FindAllString(content, -1)
	for i, t := range tags {
		tags[i] = strings.ToLower(t)
	}
	return tags
}

// IdentityKey derives the stable post key from the opening of its content.
// The content is cut to 50 characters and base64 encoded, but only the first
// 20 alphanumeric characters of the encoding are kept. Those encode about the
// first 15 bytes, so posts that open with the same 15 bytes share a key.
func IdentityKey(content string) string {
	prefix := []rune(content)
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(string(prefix)))

	var b strings.Builder
	for _, r := range encoded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() == 20 {
				break
			}
		}
	}
	return "scraped-" + b.String()
}
