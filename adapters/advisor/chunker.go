package advisor

import "strings"

// ChunkByWords splits text into chunks of up to maxWords, with overlap words
// carried between consecutive chunks. It aggregates whole paragraphs for
// stability; a paragraph longer than maxWords becomes its own chunk.
func ChunkByWords(text string, maxWords, overlap int) []string {
	if maxWords <= 0 {
		maxWords = 250
	}
	if overlap < 0 {
		overlap = 0
	}
	paras := splitParagraphs(text)
	var chunks []string
	var window []string
	curWords := 0
	for _, p := range paras {
		w := len(strings.Fields(p))
		if curWords+w > maxWords && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, "\n\n"))
			if overlap > 0 {
				window, curWords = backfillOverlap(window, overlap)
			} else {
				window = window[:0]
				curWords = 0
			}
		}
		window = append(window, p)
		curWords += w
	}
	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, "\n\n"))
	}
	return chunks
}

func splitParagraphs(s string) []string {
	raw := strings.Split(s, "\n\n")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 && strings.TrimSpace(s) != "" {
		return []string{strings.TrimSpace(s)}
	}
	return out
}

// backfillOverlap keeps trailing paragraphs totalling at most overlap words as
// the start of the next window.
func backfillOverlap(paras []string, overlap int) ([]string, int) {
	var out []string
	words := 0
	for i := len(paras) - 1; i >= 0; i-- {
		w := len(strings.Fields(paras[i]))
		if words+w > overlap && len(out) > 0 {
			break
		}
		out = append([]string{paras[i]}, out...)
		words += w
	}
	return out, words
}
