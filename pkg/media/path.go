package media

import (
	"fmt"
	"path/filepath"
)

// Namer derives target file paths under a fixed root. The result depends only
// on its inputs, so a re-run maps every media entry to the same file.
type Namer struct {
	Root string
	// Legacy keeps path separators in titles as-is, matching archives
	// written before titles were cleaned
	Legacy bool
}

// Dir returns the story directory "<root>/<date> - <title>" before emoji stripping
func (n Namer) Dir(date, title string) string {
	segment := fmt.Sprintf("%s - %s", date, title)
	if !n.Legacy {
		segment = CleanSegment(segment)
	}
	return filepath.Join(n.Root, segment)
}

// Path returns "<root>/<date> - <title>/<NN><ext>" with emoji removed
func (n Namer) Path(date, title string, position int, contentType string) (string, error) {
	ext, err := ExtensionFor(contentType)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%02d%s", position, ext)
	return StripEmoji(filepath.Join(n.Dir(date, title), name)), nil
}
