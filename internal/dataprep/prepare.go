// Package dataprep builds the serving artifacts from the raw dataset:
// filtered and scaled ratings, id codecs, and the catalog database.
// Embedding matrices are produced by the offline training run, not here.
package dataprep

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

// DefaultMinRatingsPerUser drops casual raters; it matches the offline
// training filter so the codec covers the same user set the model saw.
const DefaultMinRatingsPerUser = 400

// Options names the raw input files for a prepare run.
type Options struct {
	RatingsPath  string
	AnimePath    string
	SynopsisPath string
	// MinRatingsPerUser filters users with fewer ratings. Zero means the default.
	MinRatingsPerUser int
}

// Summary reports what a prepare run produced.
type Summary struct {
	Users    int
	Animes   int
	Ratings  int
	Catalog  int
	Synopses int
}

// Run reads the raw tables, filters and scales ratings, builds both codecs,
// and writes every artifact except the embedding matrices into cfg's
// locations.
func Run(cfg *config.ArtifactsConfig, opts Options, logger *zap.Logger) (*Summary, error) {
	minPerUser := opts.MinRatingsPerUser
	if minPerUser <= 0 {
		minPerUser = DefaultMinRatingsPerUser
	}

	ratings, err := readRatingsTable(opts.RatingsPath)
	if err != nil {
		return nil, fmt.Errorf("ratings table: %w", err)
	}
	logger.Info("ratings loaded", zap.String("path", opts.RatingsPath), zap.Int("rows", len(ratings)))

	ratings = filterUsers(ratings, minPerUser)
	scaleRatings(ratings)
	userCodec, animeCodec := buildCodecs(ratings)
	logger.Info("ratings filtered and scaled",
		zap.Int("rows", len(ratings)),
		zap.Int("users", userCodec.Len()),
		zap.Int("animes", animeCodec.Len()),
		zap.Int("min_ratings_per_user", minPerUser),
	)

	animeTable, err := readAnimeTable(opts.AnimePath)
	if err != nil {
		return nil, fmt.Errorf("anime table: %w", err)
	}
	synopses, err := readSynopsisTable(opts.SynopsisPath)
	if err != nil {
		return nil, fmt.Errorf("synopsis table: %w", err)
	}

	if err := userCodec.Save(cfg.UserCodecPath()); err != nil {
		return nil, err
	}
	if err := animeCodec.Save(cfg.AnimeCodecPath()); err != nil {
		return nil, err
	}

	db, err := catalog.OpenDB(cfg.CatalogDBPath())
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := catalog.WriteAnime(db, animeTable); err != nil {
		return nil, err
	}
	if err := catalog.WriteSynopsis(db, synopses); err != nil {
		return nil, err
	}
	if err := catalog.WriteRatings(db, ratings); err != nil {
		return nil, err
	}

	logger.Info("artifacts written", zap.String("dir", cfg.Dir))
	return &Summary{
		Users:    userCodec.Len(),
		Animes:   animeCodec.Len(),
		Ratings:  len(ratings),
		Catalog:  len(animeTable),
		Synopses: len(synopses),
	}, nil
}

// filterUsers keeps only ratings from users with at least minPerUser
// ratings, preserving input order.
func filterUsers(ratings []models.RatingRecord, minPerUser int) []models.RatingRecord {
	counts := make(map[int64]int)
	for _, r := range ratings {
		counts[r.UserID]++
	}
	out := ratings[:0]
	for _, r := range ratings {
		if counts[r.UserID] >= minPerUser {
			out = append(out, r)
		}
	}
	return out
}

// scaleRatings min-max scales all ratings to [0,1] in place. When every
// rating is identical, all scale to zero.
func scaleRatings(ratings []models.RatingRecord) {
	if len(ratings) == 0 {
		return
	}
	lo, hi := ratings[0].Rating, ratings[0].Rating
	for _, r := range ratings {
		if r.Rating < lo {
			lo = r.Rating
		}
		if r.Rating > hi {
			hi = r.Rating
		}
	}
	span := hi - lo
	for i := range ratings {
		if span == 0 {
			ratings[i].Rating = 0
		} else {
			ratings[i].Rating = (ratings[i].Rating - lo) / span
		}
	}
}

// buildCodecs assigns dense indices to users and animes in first-seen order
// over the filtered ratings.
func buildCodecs(ratings []models.RatingRecord) (userCodec, animeCodec *codec.Codec) {
	userIDs := make([]int64, 0, len(ratings))
	animeIDs := make([]int64, 0, len(ratings))
	for _, r := range ratings {
		userIDs = append(userIDs, r.UserID)
		animeIDs = append(animeIDs, r.AnimeID)
	}
	return codec.New(userIDs), codec.New(animeIDs)
}
