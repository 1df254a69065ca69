package media

import "strings"

// emojiRanges are the Unicode blocks stripped from every target path:
// emoticons, symbols & pictographs, transport & map symbols and the
// regional indicators used for flags.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F1E0, 0x1F1FF},
}

func isEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// StripEmoji removes every rune in the emoji ranges and leaves everything
// else, including other non-ASCII text, untouched
func StripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, s)
}

var segmentReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

// CleanSegment makes s safe to use as a single path element by replacing
// path separators and NUL bytes
func CleanSegment(s string) string {
	return segmentReplacer.Replace(s)
}
