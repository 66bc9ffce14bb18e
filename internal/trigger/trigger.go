// Package trigger parses the free-text message that triggered a run for an
// optional instruction addressed to the bot and for an explicit skip
// directive.
package trigger

import (
	"fmt"
	"regexp"
)

var skipPattern = regexp.MustCompile(`(?i)\bskip\b`)

// ExtractCustomInstruction returns the text following "@<botName>" in the
// trigger message, captured to the end of the string. Empty when the bot is
// not mentioned.
func ExtractCustomInstruction(botName, text string) string {
	pattern := regexp.MustCompile(fmt.Sprintf(`(?s)@%s\s+(.*)`, regexp.QuoteMeta(botName)))
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}

// ContainsSkipInstruction reports whether text contains the whole word
// "skip", case-insensitively. Substrings like "skipper" do not count.
func ContainsSkipInstruction(text string) bool {
	return skipPattern.MatchString(text)
}
