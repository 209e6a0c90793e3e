package extraction

import (
	"regexp"
	"strings"
)

var (
	lineSplit   = regexp.MustCompile(`[\r\n]+`)
	inlineSplit = regexp.MustCompile(`\s*(?:,|;|\|)\s*`)
	bulletTrim  = regexp.MustCompile(`^\s*(?:[-*]\s*|\d+[).\-:]\s*)`)
)

// SplitRawText breaks free prescription text into per-medicine chunks.
// Newline-separated entries win; otherwise comma/semicolon/pipe separated
// entries; otherwise the whole input is one chunk.  Leading bullets and list
// numbering are stripped, and exact duplicates are removed while preserving
// first-seen order.
func SplitRawText(rawText string) []string {
	normalized := strings.Join(strings.Fields(rawText), " ")
	if normalized == "" {
		return nil
	}

	var chunks []string
	for _, line := range lineSplit.Split(rawText, -1) {
		if s := strings.TrimSpace(line); s != "" {
			chunks = append(chunks, s)
		}
	}
	if len(chunks) <= 1 {
		chunks = chunks[:0]
		for _, part := range inlineSplit.Split(normalized, -1) {
			if s := strings.TrimSpace(part); s != "" {
				chunks = append(chunks, s)
			}
		}
		if len(chunks) <= 1 {
			chunks = []string{normalized}
		}
	}

	seen := make(map[string]bool, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		cleaned := strings.TrimSpace(bulletTrim.ReplaceAllString(chunk, ""))
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cleaned)
	}
	return out
}
