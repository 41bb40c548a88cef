// Package catalog provides SQLite implementation of the Catalog interface.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vibelabs/vibesearch/internal/models"
)

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
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

	return &SQLiteCatalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS places (
		place_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		neighborhood TEXT,
		latitude REAL,
		longitude REAL,
		tags TEXT,
		description TEXT,
		emoji TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_places_neighborhood ON places(neighborhood);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		place_id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (place_id) REFERENCES places(place_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_place_id ON reviews(place_id);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertPlace inserts or replaces a place row.
func (c *SQLiteCatalog) UpsertPlace(ctx context.Context, place *models.Place) error {
	tagsJSON, err := json.Marshal(place.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	now := time.Now()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO places (place_id, name, neighborhood, latitude, longitude, tags, description, emoji, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(place_id) DO UPDATE SET
		   name = excluded.name,
		   neighborhood = excluded.neighborhood,
		   latitude = excluded.latitude,
		   longitude = excluded.longitude,
		   tags = excluded.tags,
		   description = excluded.description,
		   emoji = excluded.emoji,
		   updated_at = excluded.updated_at`,
		place.PlaceID, place.Name, place.Neighborhood, place.Latitude, place.Longitude,
		string(tagsJSON), place.Description, place.Emoji, now, now,
	)
	return err
}

// GetPlace returns a place by place_id, with its reviews attached.
func (c *SQLiteCatalog) GetPlace(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := c.scanPlace(c.db.QueryRowContext(ctx,
		`SELECT place_id, name, neighborhood, latitude, longitude, tags, description, emoji
		 FROM places WHERE place_id = ?`, placeID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("place not found: %s", placeID)
	}
	if err != nil {
		return nil, err
	}
	reviews, err := c.GetReviews(ctx, placeID, 0)
	if err != nil {
		return nil, err
	}
	place.Reviews = reviews
	return place, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (c *SQLiteCatalog) scanPlace(row rowScanner) (*models.Place, error) {
	var place models.Place
	var neighborhood, tagsJSON, description, emoji sql.NullString
	var lat, lon sql.NullFloat64
	if err := row.Scan(&place.PlaceID, &place.Name, &neighborhood, &lat, &lon,
		&tagsJSON, &description, &emoji); err != nil {
		return nil, err
	}
	place.Neighborhood = neighborhood.String
	place.Description = description.String
	place.Emoji = emoji.String
	if lat.Valid {
		v := lat.Float64
		place.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		place.Longitude = &v
	}
	if tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &place.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &place, nil
}

// GetPlaces returns places for the given ids in one query, keyed by place_id.
func (c *SQLiteCatalog) GetPlaces(ctx context.Context, placeIDs []string) (map[string]*models.Place, error) {
	result := make(map[string]*models.Place, len(placeIDs))
	if len(placeIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(placeIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(placeIDs))
	for i, id := range placeIDs {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT place_id, name, neighborhood, latitude, longitude, tags, description, emoji
		 FROM places WHERE place_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		place, err := c.scanPlace(rows)
		if err != nil {
			return nil, err
		}
		result[place.PlaceID] = place
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reviewRows, err := c.db.QueryContext(ctx,
		`SELECT place_id, text FROM reviews WHERE place_id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer reviewRows.Close()

	for reviewRows.Next() {
		var placeID, text string
		if err := reviewRows.Scan(&placeID, &text); err != nil {
			return nil, err
		}
		if place, ok := result[placeID]; ok {
			place.Reviews = append(place.Reviews, text)
		}
	}
	return result, reviewRows.Err()
}

// ListPlaces returns places with offset and limit, ordered by name.
func (c *SQLiteCatalog) ListPlaces(ctx context.Context, offset, limit int) ([]*models.Place, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT place_id, name, neighborhood, latitude, longitude, tags, description, emoji
		 FROM places ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*models.Place
	for rows.Next() {
		place, err := c.scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	return places, rows.Err()
}

// DeletePlace removes a place and its reviews.
func (c *SQLiteCatalog) DeletePlace(ctx context.Context, placeID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE place_id = ?`, placeID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM places WHERE place_id = ?`, placeID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddReviews appends review texts for a place.
func (c *SQLiteCatalog) AddReviews(ctx context.Context, placeID string, reviews []string) error {
	if len(reviews) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO reviews (place_id, text) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, text := range reviews {
		if _, err := stmt.ExecContext(ctx, placeID, text); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetReviews returns review texts for a place, oldest first. limit <= 0 means all.
func (c *SQLiteCatalog) GetReviews(ctx context.Context, placeID string, limit int) ([]string, error) {
	query := `SELECT text FROM reviews WHERE place_id = ? ORDER BY id`
	args := []any{placeID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		reviews = append(reviews, text)
	}
	return reviews, rows.Err()
}

// BatchUpsertPlaces upserts multiple places in a transaction.
func (c *SQLiteCatalog) BatchUpsertPlaces(ctx context.Context, places []*models.Place) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO places (place_id, name, neighborhood, latitude, longitude, tags, description, emoji, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(place_id) DO UPDATE SET
		   name = excluded.name,
		   neighborhood = excluded.neighborhood,
		   latitude = excluded.latitude,
		   longitude = excluded.longitude,
		   tags = excluded.tags,
		   description = excluded.description,
		   emoji = excluded.emoji,
		   updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, place := range places {
		tagsJSON, err := json.Marshal(place.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags for %s: %w", place.PlaceID, err)
		}
		if _, err := stmt.ExecContext(ctx, place.PlaceID, place.Name, place.Neighborhood,
			place.Latitude, place.Longitude, string(tagsJSON), place.Description, place.Emoji, now, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountPlaces returns the total number of places.
func (c *SQLiteCatalog) CountPlaces(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places`).Scan(&count)
	return count, err
}

// CountReviews returns the total number of reviews.
func (c *SQLiteCatalog) CountReviews(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
