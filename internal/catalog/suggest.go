package catalog

import (
	"sort"
	"strings"
)

// maxSuggestDistance caps the edit distance for "did you mean" hints;
// anything further is noise for full anime titles.
const maxSuggestDistance = 10

// Suggest returns up to max known names closest to name by
// Damerau-Levenshtein distance over the lowercased strings. Ties keep the
// catalog's score order (names was built in descending score order).
func (n *NameIndex) Suggest(name string, max int) []string {
	if name == "" || max <= 0 {
		return nil
	}
	target := strings.ToLower(name)

	type scored struct {
		name string
		dist int
		pos  int
	}
	candidates := make([]scored, 0, max)
	for pos, candidate := range n.names {
		d := DamerauLevenshteinDistance(target, strings.ToLower(candidate))
		if d > maxSuggestDistance {
			continue
		}
		candidates = append(candidates, scored{name: candidate, dist: d, pos: pos})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].pos < candidates[j].pos
	})
	if max > len(candidates) {
		max = len(candidates)
	}
	out := make([]string, max)
	for i := 0; i < max; i++ {
		out[i] = candidates[i].name
	}
	return out
}

// DamerauLevenshteinDistance calculates the edit distance between two
// strings counting insertions, deletions, substitutions, and transpositions
// of adjacent characters as single edits.
func DamerauLevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	runesA := []rune(a)
	runesB := []rune(b)
	lenA := len(runesA)
	lenB := len(runesB)

	d := make([][]int, lenA+1)
	for i := range d {
		d[i] = make([]int, lenB+1)
	}
	for i := 0; i <= lenA; i++ {
		d[i][0] = i
	}
	for j := 0; j <= lenB; j++ {
		d[0][j] = j
	}

	for i := 1; i <= lenA; i++ {
		for j := 1; j <= lenB; j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
			if i > 1 && j > 1 &&
				runesA[i-1] == runesB[j-2] &&
				runesA[i-2] == runesB[j-1] {
				if t := d[i-2][j-2] + cost; t < d[i][j] {
					d[i][j] = t
				}
			}
		}
	}
	return d[lenA][lenB]
}

func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
