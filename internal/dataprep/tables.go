package dataprep

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

// unknownMarker is the placeholder the raw dataset uses for absent values.
const unknownMarker = "Unknown"

// readTable reads a tabular file as rows of string cells. CSV and XLSX
// (first sheet) are supported.
func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	default:
		return readCSV(path)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// columnIndex maps header names to column positions.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if v == unknownMarker {
		return ""
	}
	return v
}

// readAnimeTable parses the raw anime reference table. The display name
// falls back from the "English name" column to the native "Name" column
// when the English one is absent. Records are returned sorted by
// descending score, unscored titles last.
func readAnimeTable(path string) ([]models.AnimeRecord, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	idx := columnIndex(rows[0])
	for _, col := range []string{"MAL_ID", "Name"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	records := make([]models.AnimeRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id, err := strconv.ParseInt(cell(row, idx, "MAL_ID"), 10, 64)
		if err != nil {
			continue
		}
		name := cell(row, idx, "English name")
		if name == "" {
			name = cell(row, idx, "Name")
		}
		rec := models.AnimeRecord{
			AnimeID:   id,
			Name:      name,
			Genres:    cell(row, idx, "Genres"),
			Episodes:  cell(row, idx, "Episodes"),
			Type:      cell(row, idx, "Type"),
			Premiered: cell(row, idx, "Premiered"),
		}
		if v, err := strconv.ParseFloat(cell(row, idx, "Score"), 64); err == nil {
			rec.Score = &v
		}
		if v, err := strconv.ParseInt(cell(row, idx, "Members"), 10, 64); err == nil {
			rec.Members = v
		}
		records = append(records, rec)
	}

	// Descending score for display convenience; does not affect
	// recommendation correctness.
	sort.SliceStable(records, func(i, j int) bool {
		switch {
		case records[i].Score == nil:
			return false
		case records[j].Score == nil:
			return true
		default:
			return *records[i].Score > *records[j].Score
		}
	})
	return records, nil
}

// readSynopsisTable parses the synopsis table keyed by MAL_ID. The source
// dataset spells the column "sypnopsis".
func readSynopsisTable(path string) (map[int64]string, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	idx := columnIndex(rows[0])
	if _, ok := idx["MAL_ID"]; !ok {
		return nil, fmt.Errorf("%s: missing column %q", path, "MAL_ID")
	}

	out := make(map[int64]string, len(rows)-1)
	for _, row := range rows[1:] {
		id, err := strconv.ParseInt(cell(row, idx, "MAL_ID"), 10, 64)
		if err != nil {
			continue
		}
		text := cell(row, idx, "sypnopsis")
		if text == "" {
			continue
		}
		out[id] = text
	}
	return out, nil
}

// readRatingsTable parses the raw ratings table (user_id, anime_id, rating).
func readRatingsTable(path string) ([]models.RatingRecord, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	idx := columnIndex(rows[0])
	for _, col := range []string{"user_id", "anime_id", "rating"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	out := make([]models.RatingRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		userID, err1 := strconv.ParseInt(cell(row, idx, "user_id"), 10, 64)
		animeID, err2 := strconv.ParseInt(cell(row, idx, "anime_id"), 10, 64)
		rating, err3 := strconv.ParseFloat(cell(row, idx, "rating"), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out = append(out, models.RatingRecord{UserID: userID, AnimeID: animeID, Rating: rating})
	}
	return out, nil
}
