// package formatter provides functions to export a media library view to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"medialog/internal/models"
	"medialog/internal/shared"
)

// Stars renders a rating as filled and empty star glyphs, e.g. "★★★☆☆".
func Stars(rating int) string {
	if rating < models.MinRating {
		rating = models.MinRating
	}
	if rating > models.MaxRating {
		rating = models.MaxRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", models.MaxRating-rating)
}

// ExportToCSV converts a projection to CSV format with columns: ID, Title, Type, Rating, CreatedAt
func ExportToCSV(projection models.Projection) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Type", "Rating", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range projection.Items {
		record := []string{
			item.ID,
			item.Title,
			string(item.Type),
			strconv.Itoa(item.Rating),
			item.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a projection to Markdown format with a per-type count summary
func ExportToMarkdown(projection models.Projection, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Media Library"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(projection.Items)))

	buf.WriteString("## Counts\n\n")
	for _, mediaType := range models.MediaTypes() {
		buf.WriteString(fmt.Sprintf("- %s: %d\n", mediaType, projection.Counts[mediaType]))
	}
	buf.WriteString("\n## Items\n\n")

	for i, item := range projection.Items {
		buf.WriteString(fmt.Sprintf("%d. %s (%s) %s\n", i+1, item.Title, item.Type, Stars(item.Rating)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a projection to plain text format
func ExportToText(projection models.Projection) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Items: %d\n\n", len(projection.Items)))
	for i, item := range projection.Items {
		buf.WriteString(fmt.Sprintf("%d. %s (%s) %s\n", i+1, item.Title, item.Type, Stars(item.Rating)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON generates a pretty-printed JSON representation of the projection items
func ExportToJSON(projection models.Projection) ([]byte, error) {
	return shared.MarshalJSON(projection.Items, true)
}

// Formats lists the supported export format names.
func Formats() []string {
	return []string{"json", "csv", "markdown", "txt"}
}

// WriteExport writes a projection to path in the given format.
//
// A format of "" defaults to JSON. The returned path is the file written.
func WriteExport(projection models.Projection, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(projection)
	case "markdown":
		data, err = ExportToMarkdown(projection, "")
	case "txt":
		data, err = ExportToText(projection)
	case "json", "":
		data, err = ExportToJSON(projection)
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
