package recommend

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

// testAnime builds a three-anime recommender: id 1 and id 2 are close in
// embedding space, id 3 is orthogonal to id 1.
func testAnime(t *testing.T) *Anime {
	t.Helper()
	m, err := embedding.New([][]float32{{1, 0}, {0.99, 0.14}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	c := codec.New([]int64{1, 2, 3})
	cat, err := catalog.New([]models.AnimeRecord{
		{AnimeID: 1, Name: "Cowboy Bebop", Genres: "Action, Sci-Fi"},
		{AnimeID: 2, Name: "Trigun", Genres: "Action, Comedy"},
		{AnimeID: 3, Name: "Aria", Genres: "Slice of Life"},
	}, map[int64]string{2: "A gunman with a bounty on his head wanders the desert planet."})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	return NewAnime(m, c, cat, zap.NewNop())
}

func TestRecommendNearestFirst(t *testing.T) {
	a := testAnime(t)
	results, err := a.Recommend(context.Background(), "Cowboy Bebop", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Name != "Trigun" {
		t.Errorf("nearest = %q", results[0].Name)
	}
	if results[0].Similarity < 0.98 {
		t.Errorf("similarity = %f", results[0].Similarity)
	}
	if results[0].Synopsis == catalog.NoSynopsis {
		t.Error("known synopsis should be joined")
	}
}

func TestRecommendExcludesSelf(t *testing.T) {
	a := testAnime(t)
	results, err := a.Recommend(context.Background(), "Cowboy Bebop", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Name == "Cowboy Bebop" {
			t.Error("queried anime must be excluded from its own results")
		}
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not descending by similarity")
		}
	}
}

func TestRecommendSynopsisPlaceholder(t *testing.T) {
	a := testAnime(t)
	results, err := a.Recommend(context.Background(), "Trigun", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Synopsis == "" {
			t.Errorf("synopsis for %q should never be empty", r.Name)
		}
	}
}

func TestRecommendUnknownName(t *testing.T) {
	a := testAnime(t)
	_, err := a.Recommend(context.Background(), "Nonexistent Show", 10)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecommendCodecMiss(t *testing.T) {
	// Catalog knows the anime, the codec does not (never seen at training time).
	m, _ := embedding.New([][]float32{{1, 0}})
	c := codec.New([]int64{1})
	cat, err := catalog.New([]models.AnimeRecord{
		{AnimeID: 1, Name: "Cowboy Bebop"},
		{AnimeID: 99, Name: "Obscure OVA"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	a := NewAnime(m, c, cat, zap.NewNop())

	_, err = a.Recommend(context.Background(), "Obscure OVA", 5)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for codec miss, got %v", err)
	}
}
