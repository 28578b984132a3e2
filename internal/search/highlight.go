package search

import (
	"regexp"
)

// Segment is a run of text that either matches the highlighted term or not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text into segments, marking each case-insensitive, non-overlapping
// occurrence of term. An empty term or text yields the text as a single plain segment.
func Highlight(text, term string) []Segment {
	if text == "" {
		return nil
	}
	if term == "" {
		return []Segment{{Text: text}}
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, len(matches)*2+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segments = append(segments, Segment{Text: text[last:m[0]]})
		}
		segments = append(segments, Segment{Text: text[m[0]:m[1]], Match: true})
		last = m[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}

	return segments
}
