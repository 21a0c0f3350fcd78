// Package cli provides output helpers for the animerec command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/pkg/utils"
)

// OutputFormat is the format for recommendation output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteAnimeResults writes content-based recommendations to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteAnimeResults(w io.Writer, response *models.AnimeResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeAnimeResultsText(w, response)
		return nil
	}
}

func writeAnimeResultsText(w io.Writer, response *models.AnimeResponse) {
	fmt.Fprintf(w, "\nFound %d recommendations for %q in %dms\n\n",
		len(response.Results), response.Query, response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Similarity: %.4f\n", i+1, result.Similarity)
		fmt.Fprintf(w, "Name: %s\n", result.Name)
		if result.Genres != "" {
			fmt.Fprintf(w, "Genres: %s\n", result.Genres)
		}
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Synopsis, 200))
		fmt.Fprintln(w)
	}
	if len(response.Results) == 0 && len(response.Suggestions) > 0 {
		fmt.Fprintln(w, "Did you mean:")
		for _, name := range response.Suggestions {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

// WriteHybridResults writes hybrid recommendations to w in the given format.
func WriteHybridResults(w io.Writer, response *models.HybridResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeHybridResultsText(w, response)
		return nil
	}
}

func writeHybridResultsText(w io.Writer, response *models.HybridResponse) {
	fmt.Fprintf(w, "\nFound %d recommendations for user %d in %dms\n\n",
		len(response.Results), response.UserID, response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "%3d. %-50s %.2f\n", i+1, utils.Truncate(result.Name, 50), result.Score)
	}
}

// WriteNameSearchResults writes fuzzy name matches to w in the given format.
func WriteNameSearchResults(w io.Writer, results []models.NameSearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		fmt.Fprintf(w, "\nFound %d matching animes\n\n", len(results))
		for _, result := range results {
			fmt.Fprintf(w, "%-50s %s\n", utils.Truncate(result.Name, 50), result.Genres)
		}
		return nil
	}
}
