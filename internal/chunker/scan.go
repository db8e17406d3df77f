package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// span is one chunk boundary decision: [start,end) are trimmed content bounds
// in the source text, next is the cursor where the following chunk begins
// (overlap-aware). Every strategy reduces to a span scan, which is what lets
// the streaming, parallel, and lazy wrappers share one algorithm.
type span struct {
	start, end int
	next       int
}

// scan applies the configured strategy's boundary rules to text and returns
// the resulting spans. The shared edge-case policy lives here: trimmed-empty
// text yields nothing, text that fits one chunk yields a single whole-document
// span, and spans whose trimmed content is below MinChunkSize are dropped.
func scan(text string, cfg Config) []span {
	ts, te := trimBounds(text, 0, len(text))
	if ts >= te {
		return nil
	}
	if te-ts <= cfg.ChunkSize {
		if te-ts < cfg.MinChunkSize {
			return nil
		}
		return []span{{start: ts, end: te, next: len(text)}}
	}

	var spans []span
	switch cfg.Strategy {
	case StrategySemantic:
		spans = scanUnits(text, sentenceSpans(text), cfg)
	case StrategySliding:
		spans = scanSliding(text, cfg)
	case StrategyAdaptive:
		spans = scanUnits(text, paragraphSpans(text), cfg)
	default:
		spans = scanFixed(text, cfg)
	}

	kept := spans[:0]
	for _, s := range spans {
		if s.end-s.start >= cfg.MinChunkSize {
			kept = append(kept, s)
		}
	}
	return kept
}

// scanFixed greedily accumulates whole words until the chunk size is reached.
// With a positive overlap, the next chunk is seeded with the last
// max(2, ceil(Overlap/3)) words of the one just emitted.
func scanFixed(text string, cfg Config) []span {
	words := wordSpans(text)
	if len(words) == 0 {
		return nil
	}
	seed := 0
	if cfg.Overlap > 0 {
		seed = (cfg.Overlap + 2) / 3
		if seed < 2 {
			seed = 2
		}
	}
	var spans []span
	i := 0
	for i < len(words) {
		start := words[i][0]
		j := i
		for j < len(words) && words[j][1]-start <= cfg.ChunkSize {
			if cfg.PreserveParagraphs && j > i && hasBlankLine(text[words[j-1][1]:words[j][0]]) {
				break
			}
			j++
		}
		if j == i {
			// single word longer than the chunk size is emitted alone
			j = i + 1
		}
		ni := j
		if seed > 0 && j < len(words) {
			ni = j - seed
			if ni <= i {
				ni = i + 1
			}
		}
		next := len(text)
		if ni < len(words) {
			next = words[ni][0]
		}
		spans = appendTrimmed(spans, text, start, words[j-1][1], next)
		if j >= len(words) {
			break
		}
		i = ni
	}
	return spans
}

// scanUnits accumulates whole units (sentences or paragraphs) while the
// running total stays within the chunk size, then emits and starts over with
// the unit that caused the overflow. A unit larger than the chunk size is
// emitted whole: the size bound is advisory, boundary-respect is mandatory.
func scanUnits(text string, units [][2]int, cfg Config) []span {
	var spans []span
	i := 0
	for i < len(units) {
		start := units[i][0]
		j := i
		for j < len(units) && units[j][1]-start <= cfg.ChunkSize {
			j++
		}
		if j == i {
			j = i + 1
		}
		next := len(text)
		if j < len(units) {
			next = units[j][0]
		}
		spans = appendTrimmed(spans, text, start, units[j-1][1], next)
		i = j
	}
	return spans
}

// scanSliding emits character-granularity windows of ChunkSize, advancing the
// cursor by ChunkSize-Overlap each time.
func scanSliding(text string, cfg Config) []span {
	step := cfg.ChunkSize - cfg.Overlap
	if step <= 0 {
		step = 1
	}
	var spans []span
	for i := 0; i < len(text); i += step {
		end := i + cfg.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		spans = appendTrimmed(spans, text, i, end, i+step)
		if end >= len(text) {
			break
		}
	}
	return spans
}

// appendTrimmed appends [start,end) with whitespace trimmed off both bounds,
// skipping spans that trim to nothing.
func appendTrimmed(spans []span, text string, start, end, next int) []span {
	start, end = trimBounds(text, start, end)
	if start >= end {
		return spans
	}
	return append(spans, span{start: start, end: end, next: next})
}

// trimBounds narrows [start,end) to exclude leading and trailing whitespace.
func trimBounds(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}

// wordSpans returns the byte bounds of each whitespace-delimited word.
func wordSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

// sentenceSpans splits text into sentences on runs of '.', '!', '?', keeping
// the terminator run attached to its sentence. Trailing text without a
// terminator forms a final sentence.
func sentenceSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	inRun := false
	for i, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if start >= 0 {
				inRun = true
			}
		case inRun:
			spans = append(spans, [2]int{start, i})
			inRun = false
			if unicode.IsSpace(r) {
				start = -1
			} else {
				start = i
			}
		default:
			if start < 0 && !unicode.IsSpace(r) {
				start = i
			}
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

// paragraphSpans splits text into paragraphs on blank-line boundaries. A line
// containing only whitespace separates paragraphs.
func paragraphSpans(text string) [][2]int {
	var spans [][2]int
	start, end := -1, -1
	pos := 0
	for pos <= len(text) {
		lineEnd := len(text)
		if j := strings.IndexByte(text[pos:], '\n'); j >= 0 {
			lineEnd = pos + j
		}
		if strings.TrimSpace(text[pos:lineEnd]) == "" {
			if start >= 0 {
				spans = append(spans, [2]int{start, end})
				start = -1
			}
		} else {
			if start < 0 {
				start = pos
			}
			end = lineEnd
		}
		if lineEnd == len(text) {
			break
		}
		pos = lineEnd + 1
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, end})
	}
	return spans
}

// hasBlankLine reports whether the whitespace gap between two words contains
// a paragraph break.
func hasBlankLine(gap string) bool {
	return strings.Count(gap, "\n") >= 2
}
