package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// authorSelectors are tried in order against a content block; the first
// element whose text is a plausible display name wins. The class-substring
// entries track the markup of the rendered pages this was tuned against.
var authorSelectors = []string{
	`h3 a[role="link"] span`,
	`strong a`,
	`a[role="link"] strong span`,
	`a[aria-hidden="false"] span[dir="auto"]`,
	`div[dir="auto"] strong span`,
	`span[class*="x1hl2dhg"]`,
	`span[class*="xdj266r"]`,
	`span[dir="auto"] strong`,
	`a[role="link"] > span[dir="auto"]`,
}

var (
	// relativeTimeMarker spots the short "3h", "2d", "5m" style tokens that
	// sit next to an author name in a block's header line.
	relativeTimeMarker = regexp.MustCompile(`(?i)\b(h|d|m)\b`)
	// labelNoise removes admin/group/page markers from whatever label wins.
	labelNoise = regexp.MustCompile(`(?i)\s*\(admin\)|group|page`)
)

// AuthorLabel attributes a content block to a display name. It scans the
// ordered selector list over the block's HTML, falls back to the header-line
// heuristic over the block's text, and defaults to "Unknown".
func AuthorLabel(blockHTML, blockText string) string {
	if label := authorFromSelectors(blockHTML); label != "" {
		return label
	}
	if label := authorFromHeaderLine(blockText); label != "" {
		return label
	}
	return "Unknown"
}

func authorFromSelectors(blockHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blockHTML))
	if err != nil {
		return ""
	}
	for _, sel := range authorSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		// plausible display-name length, counted in runes so multibyte
		// names measure correctly
		if n := utf8.RuneCountInString(text); n > 2 && n < 50 {
			return cleanLabel(text)
		}
	}
	return ""
}

// authorFromHeaderLine looks for a short line containing a relative-time
// marker or the "·" separator and takes the part before the separator.
func authorFromHeaderLine(blockText string) string {
	for _, line := range strings.Split(blockText, "\n") {
		if utf8.RuneCountInString(line) >= 80 {
			continue
		}
		if !relativeTimeMarker.MatchString(line) && !strings.Contains(line, "·") {
			continue
		}
		head, _, _ := strings.Cut(line, "·")
		head = strings.TrimSpace(head)
		if utf8.RuneCountInString(head) > 2 {
			return cleanLabel(head)
		}
	}
	return ""
}

func cleanLabel(label string) string {
	cleaned := strings.TrimSpace(labelNoise.ReplaceAllString(label, ""))
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}
