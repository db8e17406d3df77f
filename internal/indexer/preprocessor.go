package indexer

import "strings"

// Preprocess normalizes text for indexing: line endings become LF and
// trailing whitespace is stripped from each line. Blank lines survive so the
// paragraph-aware strategies still see document structure.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
