package youtube

import (
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[?&#/]|$)`)
	idPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractID returns the 11-character video id from a YouTube URL, or the
// input itself when it already is a bare id.
func ExtractID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if idPattern.MatchString(input) {
		return input, true
	}
	match := urlPattern.FindStringSubmatch(input)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}
