package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/ratings"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/similarity"
)

// Hybrid blends user-neighbor voting with content-similarity expansion.
type Hybrid struct {
	userMatrix *embedding.Matrix
	userCodec  *codec.Codec
	ratings    *ratings.Store
	catalog    *catalog.Catalog
	anime      *Anime
	logger     *zap.Logger
}

// NewHybrid creates the hybrid recommender with its read-only dependencies.
func NewHybrid(
	userMatrix *embedding.Matrix,
	userCodec *codec.Codec,
	ratingStore *ratings.Store,
	cat *catalog.Catalog,
	anime *Anime,
	logger *zap.Logger,
) *Hybrid {
	return &Hybrid{
		userMatrix: userMatrix,
		userCodec:  userCodec,
		ratings:    ratingStore,
		catalog:    cat,
		anime:      anime,
		logger:     logger,
	}
}

// HybridOptions tunes a hybrid request. Zero values take the defaults from
// models.HybridQuery.Validate.
type HybridOptions struct {
	UserWeight    float64
	ContentWeight float64
	TopKUsers     int
	TopKContent   int
	Limit         int
}

// Recommend produces up to opts.Limit animes for userID by:
// nearest users over the user embedding matrix, vote counting of neighbor
// preferences that overlap the user's own, content expansion of the voted
// titles, and additive weight blending. Per-neighbor and per-title misses
// are logged and skipped, never fatal; only an unknown userID returns
// ErrNotFound.
func (h *Hybrid) Recommend(ctx context.Context, userID int64, opts HybridOptions) ([]models.HybridResult, error) {
	q := models.HybridQuery{
		UserID:        userID,
		UserWeight:    opts.UserWeight,
		ContentWeight: opts.ContentWeight,
		TopKUsers:     opts.TopKUsers,
		TopKContent:   opts.TopKContent,
		Limit:         opts.Limit,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	targetIndex, ok := h.userCodec.Encode(userID)
	if !ok {
		return nil, fmt.Errorf("user %d not in training set: %w", userID, ErrNotFound)
	}

	neighbors, err := similarity.Rank(h.userMatrix, targetIndex, q.TopKUsers)
	if err != nil {
		return nil, err
	}

	ownPrefs := h.ratings.TopPreferences(userID, h.catalog)
	ownSet := make(map[string]bool, len(ownPrefs))
	for _, p := range ownPrefs {
		ownSet[p.Name] = true
	}

	userList := h.voteNeighborPreferences(neighbors, userID, ownSet, q.Limit)
	contentList := h.expandContent(ctx, userList, q.TopKContent)

	// Additive blending. Occurrences in the content list are deliberately
	// not deduplicated: each one adds ContentWeight again.
	combined := make(map[string]float64, len(userList)+len(contentList))
	order := make([]string, 0, len(userList)+len(contentList))
	accumulate := func(name string, weight float64) {
		if _, seen := combined[name]; !seen {
			order = append(order, name)
		}
		combined[name] += weight
	}
	for _, name := range userList {
		accumulate(name, q.UserWeight)
	}
	for _, name := range contentList {
		accumulate(name, q.ContentWeight)
	}

	results := make([]models.HybridResult, 0, len(order))
	for _, name := range order {
		results = append(results, models.HybridResult{Name: name, Score: combined[name]})
	}
	// Descending score; ties keep first-appearance order.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// voteNeighborPreferences intersects each neighbor's top preferences with
// the queried user's own preference set and counts votes per anime name
// across neighbors. Returns the top n names by vote count; ties keep
// first-seen order. Neighbors that cannot be decoded or have no ratings
// contribute nothing.
func (h *Hybrid) voteNeighborPreferences(neighbors []similarity.Scored, selfID int64, ownSet map[string]bool, n int) []string {
	votes := make(map[string]int)
	var order []string

	for _, neighbor := range neighbors {
		neighborID, ok := h.userCodec.Decode(neighbor.Index)
		if !ok {
			h.logger.Warn("neighbor index not decodable", zap.Int("index", neighbor.Index))
			continue
		}
		if neighborID == selfID {
			continue
		}
		for _, pref := range h.ratings.TopPreferences(neighborID, h.catalog) {
			if !ownSet[pref.Name] {
				continue
			}
			if votes[pref.Name] == 0 {
				order = append(order, pref.Name)
			}
			votes[pref.Name]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return votes[order[i]] > votes[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// expandContent runs the content recommender for each voted title and
// concatenates all expansion names. Misses for a single title are logged
// and skipped.
func (h *Hybrid) expandContent(ctx context.Context, names []string, topK int) []string {
	var out []string
	for _, name := range names {
		similar, err := h.anime.Recommend(ctx, name, topK)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				h.logger.Info("no similar anime found", zap.String("name", name))
			} else {
				h.logger.Warn("content expansion failed", zap.String("name", name), zap.Error(err))
			}
			continue
		}
		for _, r := range similar {
			out = append(out, r.Name)
		}
	}
	return out
}
