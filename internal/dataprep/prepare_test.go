package dataprep

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/ratings"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFilterUsers(t *testing.T) {
	in := []models.RatingRecord{
		{UserID: 1, AnimeID: 10, Rating: 7},
		{UserID: 1, AnimeID: 11, Rating: 8},
		{UserID: 2, AnimeID: 10, Rating: 9},
	}
	out := filterUsers(in, 2)
	if len(out) != 2 {
		t.Fatalf("filtered rows = %d", len(out))
	}
	for _, r := range out {
		if r.UserID != 1 {
			t.Errorf("user %d should have been dropped", r.UserID)
		}
	}
}

func TestScaleRatings(t *testing.T) {
	rs := []models.RatingRecord{
		{Rating: 1}, {Rating: 5}, {Rating: 10},
	}
	scaleRatings(rs)
	if rs[0].Rating != 0 || rs[2].Rating != 1 {
		t.Errorf("min/max not scaled to 0/1: %v", rs)
	}
	if math.Abs(rs[1].Rating-4.0/9.0) > 1e-9 {
		t.Errorf("mid rating = %f", rs[1].Rating)
	}

	same := []models.RatingRecord{{Rating: 7}, {Rating: 7}}
	scaleRatings(same)
	if same[0].Rating != 0 || same[1].Rating != 0 {
		t.Errorf("constant ratings should scale to zero: %v", same)
	}
}

func TestBuildCodecsFirstSeen(t *testing.T) {
	rs := []models.RatingRecord{
		{UserID: 20, AnimeID: 5},
		{UserID: 30, AnimeID: 5},
		{UserID: 20, AnimeID: 9},
	}
	userCodec, animeCodec := buildCodecs(rs)
	if userCodec.Len() != 2 || animeCodec.Len() != 2 {
		t.Fatalf("codec sizes = %d/%d", userCodec.Len(), animeCodec.Len())
	}
	if idx, _ := userCodec.Encode(20); idx != 0 {
		t.Errorf("user 20 index = %d", idx)
	}
	if idx, _ := animeCodec.Encode(9); idx != 1 {
		t.Errorf("anime 9 index = %d", idx)
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "animelist.csv"), `user_id,anime_id,rating
1,100,10
1,200,6
2,100,8
2,200,2
3,100,5
`)
	writeFile(t, filepath.Join(dir, "anime.csv"), `MAL_ID,Name,English name,Score,Genres,Episodes,Type,Premiered,Members
100,Shingeki no Kyojin,Attack on Titan,8.53,"Action, Drama",25,TV,Spring 2013,3000000
200,Gintama,Unknown,8.94,"Action, Comedy",201,TV,Spring 2006,500000
`)
	writeFile(t, filepath.Join(dir, "synopsis.csv"), `MAL_ID,Name,Genres,sypnopsis
100,Shingeki no Kyojin,"Action, Drama",Humanity lives behind walls.
`)

	cfg := &config.ArtifactsConfig{
		Dir:          dir,
		UserCodec:    "user_codec.json",
		AnimeCodec:   "anime_codec.json",
		CatalogDB:    "catalog.db",
		UserWeights:  "user_weights.bin",
		AnimeWeights: "anime_weights.bin",
	}
	summary, err := Run(cfg, Options{
		RatingsPath:       filepath.Join(dir, "animelist.csv"),
		AnimePath:         filepath.Join(dir, "anime.csv"),
		SynopsisPath:      filepath.Join(dir, "synopsis.csv"),
		MinRatingsPerUser: 2,
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	// User 3 has one rating and is filtered out.
	if summary.Users != 2 || summary.Ratings != 4 {
		t.Errorf("summary = %+v", summary)
	}

	userCodec, err := codec.Load(cfg.UserCodecPath())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := userCodec.Encode(3); ok {
		t.Error("filtered user must not be encodable")
	}

	db, err := catalog.OpenExistingDB(cfg.CatalogDBPath())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	cat, err := catalog.Load(db)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	// English name used when known, native name as fallback.
	if _, ok := cat.ByName("Attack on Titan"); !ok {
		t.Error("English display name missing from catalog")
	}
	if _, ok := cat.ByName("Gintama"); !ok {
		t.Error("native-name fallback missing from catalog")
	}
	// Catalog sorted by descending score: Gintama (8.94) first.
	if cat.Records()[0].AnimeID != 200 {
		t.Errorf("first record = %d", cat.Records()[0].AnimeID)
	}
	if cat.Synopsis(100) == catalog.NoSynopsis {
		t.Error("synopsis should be present")
	}
	if cat.Synopsis(200) != catalog.NoSynopsis {
		t.Error("missing synopsis should yield placeholder")
	}

	store, err := ratings.Load(db)
	if err != nil {
		t.Fatal(err)
	}
	// Scaled to [0,1]: max raw rating 10 -> 1.0, min raw rating 2 -> 0.0.
	for _, r := range store.UserRatings(1) {
		if r.Rating < 0 || r.Rating > 1 {
			t.Errorf("rating out of range: %f", r.Rating)
		}
	}
}

func TestReadAnimeTableMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "anime.csv"), "Name,Score\nGintama,8.94\n")
	if _, err := readAnimeTable(filepath.Join(dir, "anime.csv")); err == nil {
		t.Error("expected error for missing MAL_ID column")
	}
}
