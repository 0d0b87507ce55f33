package formatting

import (
	"regexp"
	"strings"
)

var fenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z0-9]*\\s*\n?(.*?)\n?```$")

// Unfence strips a markdown code fence when the entire content is wrapped in
// one. Models asked for raw output frequently wrap it in ```...``` anyway;
// partial fences inside the content are left untouched.
func Unfence(content string) string {
	content = strings.TrimSpace(content)

	matches := fenceRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}

	return content
}
