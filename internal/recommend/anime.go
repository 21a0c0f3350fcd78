// Package recommend composes the codec, catalog, and similarity engine into
// the content and hybrid recommenders.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/similarity"
)

// ErrNotFound reports a name or id absent from the codec or catalog.
// Boundaries recover it into an empty result set; it is never a fault.
var ErrNotFound = similarity.ErrNotFound

// Anime answers "animes similar to X" over the anime embedding matrix.
type Anime struct {
	matrix  *embedding.Matrix
	codec   *codec.Codec
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewAnime creates the content recommender with its read-only dependencies.
func NewAnime(m *embedding.Matrix, c *codec.Codec, cat *catalog.Catalog, logger *zap.Logger) *Anime {
	return &Anime{matrix: m, codec: c, catalog: cat, logger: logger}
}

// Recommend resolves name to an embedding row, ranks every anime against it,
// and returns up to n results enriched with genres and synopsis, descending
// by similarity. The queried anime is excluded by id equality. An
// unresolvable name or codec miss returns ErrNotFound.
func (a *Anime) Recommend(ctx context.Context, name string, n int) ([]models.RankedResult, error) {
	rec, ok := a.catalog.ByName(name)
	if !ok {
		return nil, fmt.Errorf("anime %q: %w", name, ErrNotFound)
	}
	targetID := rec.AnimeID

	index, ok := a.codec.Encode(targetID)
	if !ok {
		return nil, fmt.Errorf("anime id %d not in training set: %w", targetID, ErrNotFound)
	}

	ranked, err := similarity.Rank(a.matrix, index, n)
	if err != nil {
		return nil, err
	}

	results := make([]models.RankedResult, 0, len(ranked))
	for _, hit := range ranked {
		decodedID, ok := a.codec.Decode(hit.Index)
		if !ok {
			a.logger.Warn("dense index not decodable", zap.Int("index", hit.Index))
			continue
		}
		if decodedID == targetID {
			continue
		}
		hitRec, ok := a.catalog.ByID(decodedID)
		if !ok {
			a.logger.Warn("decoded anime missing from catalog", zap.Int64("anime_id", decodedID))
			continue
		}
		results = append(results, models.RankedResult{
			Name:       hitRec.Name,
			Similarity: hit.Score,
			Genres:     hitRec.Genres,
			Synopsis:   a.catalog.Synopsis(decodedID),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}
