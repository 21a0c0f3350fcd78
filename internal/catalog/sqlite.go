package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

// OpenDB opens or creates the catalog SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func OpenDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// OpenExistingDB opens the catalog database at dbPath, failing if it does not
// exist. Serving uses this so a missing artifact refuses to start instead of
// silently creating an empty catalog.
func OpenExistingDB(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("catalog database missing: %w", err)
	}
	return OpenDB(dbPath)
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS anime (
		anime_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		genres TEXT,
		score REAL,
		episodes TEXT,
		type TEXT,
		premiered TEXT,
		members INTEGER,
		sort_order INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_anime_name ON anime(name);
	CREATE INDEX IF NOT EXISTS idx_anime_sort ON anime(sort_order);

	CREATE TABLE IF NOT EXISTS synopsis (
		anime_id INTEGER PRIMARY KEY,
		synopsis TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ratings (
		user_id INTEGER NOT NULL,
		anime_id INTEGER NOT NULL,
		rating REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings(user_id);
	`
	_, err := db.Exec(schema)
	return err
}

// readAnime returns all anime rows in stored sort order (descending score,
// as written by the prepare step).
func readAnime(db *sql.DB) ([]models.AnimeRecord, error) {
	rows, err := db.Query(
		`SELECT anime_id, name, genres, score, episodes, type, premiered, members
		 FROM anime ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query anime: %w", err)
	}
	defer rows.Close()

	var records []models.AnimeRecord
	for rows.Next() {
		var rec models.AnimeRecord
		var genres, episodes, typ, premiered sql.NullString
		var score sql.NullFloat64
		var members sql.NullInt64
		if err := rows.Scan(&rec.AnimeID, &rec.Name, &genres, &score, &episodes, &typ, &premiered, &members); err != nil {
			return nil, fmt.Errorf("scan anime row: %w", err)
		}
		rec.Genres = genres.String
		rec.Episodes = episodes.String
		rec.Type = typ.String
		rec.Premiered = premiered.String
		rec.Members = members.Int64
		if score.Valid {
			v := score.Float64
			rec.Score = &v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func readSynopsis(db *sql.DB) (map[int64]string, error) {
	rows, err := db.Query(`SELECT anime_id, synopsis FROM synopsis`)
	if err != nil {
		return nil, fmt.Errorf("query synopsis: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scan synopsis row: %w", err)
		}
		out[id] = text
	}
	return out, rows.Err()
}

// WriteAnime replaces the anime table contents with records, preserving
// their order as sort_order. Used by the prepare step.
func WriteAnime(db *sql.DB, records []models.AnimeRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM anime`); err != nil {
		return fmt.Errorf("clear anime: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO anime (anime_id, name, genres, score, episodes, type, premiered, members, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, rec := range records {
		var score interface{}
		if rec.Score != nil {
			score = *rec.Score
		}
		if _, err := stmt.Exec(rec.AnimeID, rec.Name, rec.Genres, score, rec.Episodes, rec.Type, rec.Premiered, rec.Members, i); err != nil {
			return fmt.Errorf("insert anime %d: %w", rec.AnimeID, err)
		}
	}
	return tx.Commit()
}

// WriteSynopsis replaces the synopsis table contents. Used by the prepare step.
func WriteSynopsis(db *sql.DB, synopsis map[int64]string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM synopsis`); err != nil {
		return fmt.Errorf("clear synopsis: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO synopsis (anime_id, synopsis) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, text := range synopsis {
		if _, err := stmt.Exec(id, text); err != nil {
			return fmt.Errorf("insert synopsis %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// WriteRatings replaces the ratings table contents. Used by the prepare step.
func WriteRatings(db *sql.DB, ratings []models.RatingRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ratings`); err != nil {
		return fmt.Errorf("clear ratings: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO ratings (user_id, anime_id, rating) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range ratings {
		if _, err := stmt.Exec(r.UserID, r.AnimeID, r.Rating); err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
	}
	return tx.Commit()
}
