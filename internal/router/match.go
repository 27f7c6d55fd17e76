package router

import "strings"

// matchScore rates how well a free-text event reference fits an event
// title, in [0,1]:
//
//   - 1.0 for an exact match after normalization
//   - 0.5 + 0.5*(len shorter / len longer) when one contains the other,
//     so any containment clears the default 0.5 threshold but longer
//     titles score lower than near-exact ones
//   - token Jaccard overlap otherwise
//
// Scoring is pure string math, so resolution is reproducible: the same
// reference against the same candidate set always yields the same
// matches, and ties are rejected upstream rather than broken.
func matchScore(reference, title string) float64 {
	ref := normalize(reference)
	t := normalize(title)
	if ref == "" || t == "" {
		return 0
	}
	if ref == t {
		return 1
	}

	shorter, longer := ref, t
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 0.5 + 0.5*float64(len(shorter))/float64(len(longer))
	}

	return jaccard(strings.Fields(ref), strings.Fields(t))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, tok := range a {
		set[tok] = true
	}
	union := make(map[string]bool, len(a)+len(b))
	for _, tok := range a {
		union[tok] = true
	}
	shared := 0
	for _, tok := range b {
		if set[tok] {
			shared++
			// Count each shared token once.
			delete(set, tok)
		}
		union[tok] = true
	}
	return float64(shared) / float64(len(union))
}
