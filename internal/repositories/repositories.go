// package repositories provides the sqlite persistence layer.
//
// [MediaRepository] implements [services.DocumentStore] against a local
// database, so the media store works identically whether records live
// in sqlite or behind the HTTP document API.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"medialog/internal/models"
	"medialog/internal/shared"
)

// MediaRepository implements [services.DocumentStore] backed by sqlite.
type MediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new [MediaRepository] with the given database connection
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create inserts a new media record with a generated ID and returns the ID.
// The collection argument selects the target table; only "media" exists today.
func (r *MediaRepository) Create(ctx context.Context, collection string, record models.MediaRecord) (string, error) {
	if err := validCollection(collection); err != nil {
		return "", err
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO media (id, owner_id, title, media_type, rating, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, id, record.OwnerID, record.Title, string(record.Type), record.Rating, record.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert media record: %w", err)
	}

	return id, nil
}

// QueryByOwner retrieves every record belonging to ownerID in insertion order.
func (r *MediaRepository) QueryByOwner(ctx context.Context, collection, ownerID string) ([]models.MediaRecord, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, title, media_type, rating, created_at
		FROM media
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media records: %w", err)
	}
	defer rows.Close()

	var records []models.MediaRecord
	for rows.Next() {
		var (
			record    models.MediaRecord
			mediaType string
			createdAt time.Time
		)

		err := rows.Scan(&record.ID, &record.OwnerID, &record.Title, &mediaType, &record.Rating, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media record: %w", err)
		}

		record.Type = models.MediaType(mediaType)
		record.CreatedAt = createdAt
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// MergeUpdate applies a partial update to the record with the given ID.
// Unknown field names are rejected before touching the database.
func (r *MediaRepository) MergeUpdate(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	columns := map[string]string{
		"title":     "title",
		"mediaType": "media_type",
		"rating":    "rating",
	}

	assignments := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range []string{"title", "mediaType", "rating"} {
		value, ok := fields[field]
		if !ok {
			continue
		}
		if mediaType, isType := value.(models.MediaType); isType {
			value = string(mediaType)
		}
		assignments = append(assignments, columns[field]+" = ?")
		args = append(args, value)
	}

	if len(assignments) != len(fields) {
		return fmt.Errorf("%w: unknown merge field", shared.ErrInvalidArgument)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE media SET %s WHERE id = ?", strings.Join(assignments, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update media record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}

	return nil
}

// Delete removes the record with the given ID.
func (r *MediaRepository) Delete(ctx context.Context, collection, id string) error {
	if err := validCollection(collection); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}

	return nil
}

func validCollection(collection string) error {
	if collection != "media" {
		return fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, collection)
	}
	return nil
}
