// Package integration provides end-to-end tests covering the prepare,
// artifact load, and recommend paths together.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/artifacts"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/dataprep"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/recommend"
)

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestIntegration_PrepareThenRecommend(t *testing.T) {
	raw := t.TempDir()
	artifactDir := t.TempDir()

	ratingsPath := filepath.Join(raw, "rating_complete.csv")
	animePath := filepath.Join(raw, "anime.csv")
	synopsisPath := filepath.Join(raw, "anime_with_synopsis.csv")

	// Two users with three ratings each; min-ratings filter is lowered so
	// both survive.
	writeCSV(t, ratingsPath, `user_id,anime_id,rating
10,1,10
10,2,9
10,3,5
11,1,10
11,2,8
11,3,6
`)
	writeCSV(t, animePath, `MAL_ID,Name,English name,Score,Genres,Type,Episodes,Premiered,Members
1,Cowboy Bebop,Cowboy Bebop,8.78,"Action, Sci-Fi",TV,26,Spring 1998,1251960
2,Trigun,Trigun,8.24,"Action, Comedy",TV,26,Spring 1998,558913
3,Aria,Aria the Animation,7.70,Slice of Life,TV,13,Fall 2005,90000
`)
	writeCSV(t, synopsisPath, `MAL_ID,Name,Score,Genres,sypnopsis
1,Cowboy Bebop,8.78,"Action, Sci-Fi",Bounty hunters drift through space.
2,Trigun,8.24,"Action, Comedy",A gunman with a bounty on his head.
`)

	cfg := &config.Config{Artifacts: config.ArtifactsConfig{Dir: artifactDir}}
	config.ApplyDefaults(cfg)
	cfg.Artifacts.Dir = artifactDir

	logger := zap.NewNop()
	summary, err := dataprep.Run(&cfg.Artifacts, dataprep.Options{
		RatingsPath:       ratingsPath,
		AnimePath:         animePath,
		SynopsisPath:      synopsisPath,
		MinRatingsPerUser: 2,
	}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Users != 2 || summary.Animes != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	// The embedding matrices come from offline training; write matching ones
	// in codec order (anime codec first-seen order is 1, 2, 3).
	animeMatrix, err := embedding.New([][]float32{{1, 0}, {0.99, 0.14}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if err := animeMatrix.Save(cfg.Artifacts.AnimeWeightsPath()); err != nil {
		t.Fatal(err)
	}
	userMatrix, err := embedding.New([][]float32{{1, 0}, {0.9, 0.1}})
	if err != nil {
		t.Fatal(err)
	}
	if err := userMatrix.Save(cfg.Artifacts.UserWeightsPath()); err != nil {
		t.Fatal(err)
	}

	snap, err := artifacts.Load(&cfg.Artifacts, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer snap.Close()

	ctx := context.Background()
	results, err := snap.Anime.Recommend(ctx, "Cowboy Bebop", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Name != "Trigun" {
		t.Errorf("anime results = %v", results)
	}
	if results[0].Synopsis != "A gunman with a bounty on his head." {
		t.Errorf("synopsis = %q", results[0].Synopsis)
	}

	hybrid, err := snap.Hybrid.Recommend(ctx, 10, recommend.HybridOptions{
		UserWeight:    0.5,
		ContentWeight: 0.5,
		TopKUsers:     5,
		TopKContent:   5,
		Limit:         10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(hybrid) == 0 {
		t.Error("expected hybrid recommendations for a known user")
	}
}
