package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"medialog/internal/models"
	"medialog/internal/shared"
)

// audioExtensions lists the file extensions considered importable audio.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// ImportOpts contains configuration for audio library imports.
type ImportOpts struct {
	DryRun bool // Scan and report without adding records
}

// ImportFailure describes a file that could not be imported.
type ImportFailure struct {
	Path string
	Err  error
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Scanned  int
	Imported int
	Skipped  int
	Failures []ImportFailure
}

// Import walks dir for audio files and adds each as a music record.
//
// Titles come from embedded metadata ("Artist - Title") when the file carries
// readable tags, falling back to the file name. Files whose derived title is
// already in the library are skipped so repeated imports stay idempotent.
func (e *LibraryEngine) Import(ctx context.Context, progress chan<- ProgressUpdate, dir string, opts ImportOpts) (*ImportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: media store not initialized", shared.ErrStoreNotLoaded)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read import directory: %v", shared.ErrInvalidArgument, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidArgument, dir)
	}

	e.sendProgress(progress, scanFilesUpdate(1, 1, dir))

	var paths []string
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if audioExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	existing := make(map[string]bool)
	projection := e.store.Project(models.ViewQuery{TypeFilter: models.TypeAll})
	for _, item := range projection.Items {
		existing[strings.ToLower(item.Title)] = true
	}

	result := &ImportResult{Scanned: len(paths)}

	for i, path := range paths {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		title := titleFromFile(path)

		if existing[strings.ToLower(title)] {
			result.Skipped++
			e.sendProgress(progress, importSkippedUpdate(i+1, len(paths), title))
			continue
		}

		e.sendProgress(progress, importRecordUpdate(i+1, len(paths), title))

		if opts.DryRun {
			result.Imported++
			existing[strings.ToLower(title)] = true
			continue
		}

		if _, err := e.store.Add(ctx, title, models.TypeMusic); err != nil {
			result.Failures = append(result.Failures, ImportFailure{Path: path, Err: err})
			continue
		}

		result.Imported++
		existing[strings.ToLower(title)] = true
	}

	return result, nil
}

// titleFromFile derives a record title from audio metadata, falling back to
// the file name (without extension) when tags are missing or unreadable.
func titleFromFile(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	file, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return fallback
	}

	title := strings.TrimSpace(metadata.Title())
	if title == "" {
		return fallback
	}

	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		return fmt.Sprintf("%s - %s", artist, title)
	}
	return title
}
