// Package catalog provides the read-only anime metadata store: the cleaned
// anime reference table, the synopsis table, and a name search index.
package catalog

import (
	"database/sql"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

// NoSynopsis is the placeholder returned when an anime has no synopsis row.
const NoSynopsis = "No synopsis available"

// Catalog holds the anime reference data fully in memory. It is loaded once
// at startup and never mutated afterwards, so it is safe to share across
// concurrent requests without locking.
type Catalog struct {
	records  []models.AnimeRecord // descending score order
	byID     map[int64]*models.AnimeRecord
	byName   map[string]*models.AnimeRecord // first row wins on duplicate names
	synopsis map[int64]string
	names    *NameIndex
}

// Load reads the anime and synopsis tables from db into memory and builds
// the name search index.
func Load(db *sql.DB) (*Catalog, error) {
	records, err := readAnime(db)
	if err != nil {
		return nil, err
	}
	synopsis, err := readSynopsis(db)
	if err != nil {
		return nil, err
	}
	return build(records, synopsis)
}

// New builds a catalog directly from records, for tests and the prepare step.
func New(records []models.AnimeRecord, synopsis map[int64]string) (*Catalog, error) {
	return build(records, synopsis)
}

func build(records []models.AnimeRecord, synopsis map[int64]string) (*Catalog, error) {
	c := &Catalog{
		records:  records,
		byID:     make(map[int64]*models.AnimeRecord, len(records)),
		byName:   make(map[string]*models.AnimeRecord, len(records)),
		synopsis: synopsis,
	}
	for i := range c.records {
		rec := &c.records[i]
		if _, ok := c.byID[rec.AnimeID]; !ok {
			c.byID[rec.AnimeID] = rec
		}
		if _, ok := c.byName[rec.Name]; !ok && rec.Name != "" {
			c.byName[rec.Name] = rec
		}
	}
	names, err := NewNameIndex(c.records)
	if err != nil {
		return nil, err
	}
	c.names = names
	return c, nil
}

// ByID returns the anime record for a raw anime id.
func (c *Catalog) ByID(id int64) (*models.AnimeRecord, bool) {
	rec, ok := c.byID[id]
	return rec, ok
}

// ByName returns the anime record for an exact display name match.
func (c *Catalog) ByName(name string) (*models.AnimeRecord, bool) {
	rec, ok := c.byName[name]
	return rec, ok
}

// Synopsis returns the synopsis text for an anime id, or a placeholder when
// none is known. It never fails.
func (c *Catalog) Synopsis(id int64) string {
	if s, ok := c.synopsis[id]; ok && s != "" {
		return s
	}
	return NoSynopsis
}

// Len returns the number of anime records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns all records in descending score order. The returned slice
// must not be modified.
func (c *Catalog) Records() []models.AnimeRecord {
	return c.records
}

// Search runs a keyword search over anime names and genres.
func (c *Catalog) Search(query string, limit int) ([]models.NameSearchResult, error) {
	return c.names.Search(query, limit)
}

// Suggest returns up to max known anime names closest to name by edit
// distance, for "did you mean" hints on unresolvable input.
func (c *Catalog) Suggest(name string, max int) []string {
	return c.names.Suggest(name, max)
}

// Close releases the name index.
func (c *Catalog) Close() error {
	if c.names != nil {
		return c.names.Close()
	}
	return nil
}
