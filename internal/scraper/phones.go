package scraper

import "regexp"

var (
	// phonePattern matches phone-number-like runs: an optional leading "+",
	// then digits interleaved with common separators, ending on a digit.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-–—]{7,}\d`)
	// phoneStrip removes everything except digits and "+".
	phoneStrip = regexp.MustCompile(`[^\d+]`)
)

// ExtractPhones pulls candidate phone numbers out of free text. Each match is
// normalized by stripping separators; values shorter than 8 or longer than 15
// characters are discarded. The result preserves first-seen order and
// contains no duplicates.
func ExtractPhones(text string) []string {
	matches := phonePattern.FindAllString(text, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		n := phoneStrip.ReplaceAllString(m, "")
		if len(n) < 8 || len(n) > 15 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
