// Package similarity ranks embedding-matrix rows by inner product against a target row.
package similarity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
)

// ErrNotFound is returned when a target cannot be resolved to a matrix row.
var ErrNotFound = errors.New("not found")

// Scored is a single ranked row: dense index and its similarity to the target.
type Scored struct {
	Index int
	Score float64
}

// Rank computes the similarity of every row in m against row target and
// returns the topK+1 highest-scoring rows in descending order. The target
// row itself is included (it scores 1.0 for normalized rows); callers
// exclude it by decoded id, not by index. Ties keep ascending row order
// before the final reverse, so output is deterministic for a fixed matrix.
func Rank(m *embedding.Matrix, target int, topK int) ([]Scored, error) {
	targetRow, ok := m.Row(target)
	if !ok {
		return nil, fmt.Errorf("target row %d: %w", target, ErrNotFound)
	}
	if topK < 0 {
		topK = 0
	}

	dims := m.Dims()
	scores := make([]Scored, m.Rows())
	for i := 0; i < m.Rows(); i++ {
		row, _ := m.Row(i)
		var dot float64
		for j := 0; j < dims; j++ {
			dot += float64(row[j] * targetRow[j])
		}
		scores[i] = Scored{Index: i, Score: dot}
	}

	// Ascending stable sort, then take the tail and reverse: equal scores
	// come out in descending index order, matching the offline argsort.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score < scores[j].Score })

	n := topK + 1
	if n > len(scores) {
		n = len(scores)
	}
	closest := scores[len(scores)-n:]

	out := make([]Scored, n)
	for i := range closest {
		out[n-1-i] = closest[i]
	}
	return out, nil
}
