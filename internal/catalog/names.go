package catalog

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

// NameIndex is an in-memory Bleve index over anime names and genres, used
// by the form front end to find titles without an exact-match name.
type NameIndex struct {
	index bleve.Index
	names []string // all display names, for edit-distance suggestions
}

type nameDoc struct {
	Name   string `json:"name"`
	Genres string `json:"genres"`
}

// NewNameIndex builds an in-memory index over the given records.
func NewNameIndex(records []models.AnimeRecord) (*NameIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so partial
	// title words match exactly as typed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("genres", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create name index: %w", err)
	}

	batch := index.NewBatch()
	names := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Name == "" || seen[rec.Name] {
			continue
		}
		seen[rec.Name] = true
		names = append(names, rec.Name)
		doc := nameDoc{Name: rec.Name, Genres: rec.Genres}
		if err := batch.Index(strconv.FormatInt(rec.AnimeID, 10), doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index anime %d: %w", rec.AnimeID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to build name index: %w", err)
	}
	return &NameIndex{index: index, names: names}, nil
}

// Search runs a match query over names and genres and returns up to limit hits.
func (n *NameIndex) Search(query string, limit int) ([]models.NameSearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"name", "genres"}
	results, err := n.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("name search failed: %w", err)
	}
	out := make([]models.NameSearchResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		r := models.NameSearchResult{Score: hit.Score}
		if v, ok := hit.Fields["name"].(string); ok {
			r.Name = v
		}
		if v, ok := hit.Fields["genres"].(string); ok {
			r.Genres = v
		}
		out = append(out, r)
	}
	return out, nil
}

// Close releases the index.
func (n *NameIndex) Close() error {
	return n.index.Close()
}
