package notes

import "strings"

// MatchesText reports whether the note body contains q, ignoring case.
// An empty query matches every note.
func MatchesText(n *Note, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Text), strings.ToLower(q))
}

// MatchesTags reports whether the note carries every tag in filter.
// Tag names are compared case-sensitively.
func MatchesTags(n *Note, filter []string) bool {
	for _, want := range filter {
		found := false
		for _, have := range n.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterNotes keeps the notes matching both the text query and the tag filter.
func FilterNotes(in []*Note, q string, tagFilter []string) []*Note {
	out := make([]*Note, 0, len(in))
	for _, n := range in {
		if MatchesText(n, q) && MatchesTags(n, tagFilter) {
			out = append(out, n)
		}
	}
	return out
}

// ParseTagFilter splits a comma separated tag list, dropping blanks.
func ParseTagFilter(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
