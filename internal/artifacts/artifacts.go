// Package artifacts loads the offline training artifacts into an immutable
// serving snapshot and provides lock-free access to the current one.
package artifacts

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/ratings"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/recommend"
)

// Snapshot is one coherent set of serving artifacts. It is immutable after
// Load and safe to share across concurrent requests without locking.
type Snapshot struct {
	ID       string
	LoadedAt time.Time

	UserMatrix  *embedding.Matrix
	AnimeMatrix *embedding.Matrix
	UserCodec   *codec.Codec
	AnimeCodec  *codec.Codec
	Catalog     *catalog.Catalog
	Ratings     *ratings.Store

	Anime  *recommend.Anime
	Hybrid *recommend.Hybrid
}

// Load reads every artifact named by cfg and wires the recommenders. Any
// missing or malformed artifact is a fatal error: serving must refuse to
// start rather than run with partial data.
func Load(cfg *config.ArtifactsConfig, logger *zap.Logger) (*Snapshot, error) {
	userMatrix, err := embedding.Load(cfg.UserWeightsPath())
	if err != nil {
		return nil, fmt.Errorf("user weights: %w", err)
	}
	animeMatrix, err := embedding.Load(cfg.AnimeWeightsPath())
	if err != nil {
		return nil, fmt.Errorf("anime weights: %w", err)
	}
	userCodec, err := codec.Load(cfg.UserCodecPath())
	if err != nil {
		return nil, fmt.Errorf("user codec: %w", err)
	}
	animeCodec, err := codec.Load(cfg.AnimeCodecPath())
	if err != nil {
		return nil, fmt.Errorf("anime codec: %w", err)
	}
	if userCodec.Len() != userMatrix.Rows() {
		return nil, fmt.Errorf("user codec has %d ids but matrix has %d rows", userCodec.Len(), userMatrix.Rows())
	}
	if animeCodec.Len() != animeMatrix.Rows() {
		return nil, fmt.Errorf("anime codec has %d ids but matrix has %d rows", animeCodec.Len(), animeMatrix.Rows())
	}

	db, err := catalog.OpenExistingDB(cfg.CatalogDBPath())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cat, err := catalog.Load(db)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	ratingStore, err := ratings.Load(db)
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("ratings: %w", err)
	}

	anime := recommend.NewAnime(animeMatrix, animeCodec, cat, logger)
	hybrid := recommend.NewHybrid(userMatrix, userCodec, ratingStore, cat, anime, logger)

	snap := &Snapshot{
		ID:          uuid.NewString(),
		LoadedAt:    time.Now(),
		UserMatrix:  userMatrix,
		AnimeMatrix: animeMatrix,
		UserCodec:   userCodec,
		AnimeCodec:  animeCodec,
		Catalog:     cat,
		Ratings:     ratingStore,
		Anime:       anime,
		Hybrid:      hybrid,
	}
	logger.Info("artifacts loaded",
		zap.String("snapshot_id", snap.ID),
		zap.Int("animes", animeMatrix.Rows()),
		zap.Int("users", userMatrix.Rows()),
		zap.Int("dims", animeMatrix.Dims()),
		zap.Int("catalog_records", cat.Len()),
		zap.Int("ratings", ratingStore.Len()),
	)
	return snap, nil
}

// Close releases snapshot resources.
func (s *Snapshot) Close() error {
	if s.Catalog != nil {
		return s.Catalog.Close()
	}
	return nil
}

// Provider hands out the current snapshot and swaps in a new one on reload.
// Readers resolve the snapshot once per request; in-flight requests keep the
// snapshot they started with.
type Provider struct {
	current atomic.Pointer[Snapshot]
}

// NewProvider creates a provider holding snap.
func NewProvider(snap *Snapshot) *Provider {
	p := &Provider{}
	p.current.Store(snap)
	return p
}

// Current returns the active snapshot.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Swap installs a new snapshot and returns the previous one.
func (p *Provider) Swap(snap *Snapshot) *Snapshot {
	return p.current.Swap(snap)
}

// Replace installs next and closes the previous snapshot only after grace has
// elapsed. A request that resolved Current before the swap keeps a live
// snapshot for its whole lifetime, so grace must exceed the server's request
// timeout.
func (p *Provider) Replace(next *Snapshot, grace time.Duration) {
	prev := p.current.Swap(next)
	if prev == nil || prev == next {
		return
	}
	time.AfterFunc(grace, func() { _ = prev.Close() })
}
