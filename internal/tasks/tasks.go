// package tasks implements long-running library operations.
//
// The core abstraction is LibraryEngine, which orchestrates bulk resync of
// unsaved records, audio file imports, and library exports. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"medialog/internal/formatter"
	"medialog/internal/models"
	"medialog/internal/shared"
	"medialog/internal/store"
)

// LibraryEngine runs bulk operations against a [store.MediaStore].
type LibraryEngine struct {
	store *store.MediaStore
}

// NewLibraryEngine creates a new LibraryEngine operating on the given store.
func NewLibraryEngine(s *store.MediaStore) *LibraryEngine {
	return &LibraryEngine{store: s}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ResyncOpts contains configuration for bulk resync of unsaved records.
type ResyncOpts struct {
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Persist attempts per second (default: 5)
}

// RecordSyncError describes a single record that could not be re-persisted.
type RecordSyncError struct {
	ID    string
	Title string
	Err   error
}

// ResyncResult summarizes a bulk resync run.
type ResyncResult struct {
	TotalRecords int
	Synced       int
	Failed       int
	Errors       []RecordSyncError
}

type resyncJob struct {
	id    string
	title string
}

// Resync re-persists every record whose last save failed, with rate limiting
// and a bounded worker pool. Records that fail again stay marked unsaved and
// are reported in the result rather than aborting the run.
func (e *LibraryEngine) Resync(ctx context.Context, progress chan<- ProgressUpdate, opts ResyncOpts) (*ResyncResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: media store not initialized", shared.ErrStoreNotLoaded)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	dirty := e.store.Dirty()
	result := &ResyncResult{TotalRecords: len(dirty)}
	if len(dirty) == 0 {
		return result, nil
	}

	e.sendProgress(progress, resyncStartUpdate(len(dirty)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan resyncJob, len(dirty))
	errs := make(chan RecordSyncError, len(dirty))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					errs <- RecordSyncError{ID: job.id, Title: job.title, Err: err}
					continue
				}
				if err := e.store.Resync(ctx, job.id); err != nil {
					errs <- RecordSyncError{ID: job.id, Title: job.title, Err: err}
				} else {
					errs <- RecordSyncError{ID: job.id, Title: job.title}
				}
			}
		}()
	}

	for _, record := range dirty {
		jobs <- resyncJob{id: record.ID, title: record.Title}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(errs)
	}()

	completed := 0
	for res := range errs {
		completed++
		if res.Err != nil {
			result.Failed++
			result.Errors = append(result.Errors, res)
			e.sendProgress(progress, resyncFailedUpdate(completed, len(dirty), res.Title, res.Err))
		} else {
			result.Synced++
			e.sendProgress(progress, resyncRecordUpdate(completed, len(dirty), res.Title))
		}
	}

	return result, nil
}

// ExportOpts contains configuration for library exports.
type ExportOpts struct {
	Format string // Export format: json, csv, markdown, txt (default: json)
	Path   string // Output file (default: media_export_{epoch}.{format})
}

// ExportResult describes the file written by Export.
type ExportResult struct {
	Path  string
	Items int
}

// Export writes the current library view, filtered and sorted by query, to a file.
func (e *LibraryEngine) Export(progress chan<- ProgressUpdate, query models.ViewQuery, opts ExportOpts) (*ExportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: media store not initialized", shared.ErrStoreNotLoaded)
	}

	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.Path == "" {
		extension := opts.Format
		if extension == "markdown" {
			extension = "md"
		}
		opts.Path = fmt.Sprintf("media_export_%d.%s", time.Now().Unix(), extension)
	}

	projection := e.store.Project(query)
	e.sendProgress(progress, exportLibraryUpdate(1, 1, opts.Path))

	path, err := formatter.WriteExport(projection, opts.Format, opts.Path)
	if err != nil {
		return nil, err
	}

	return &ExportResult{Path: path, Items: len(projection.Items)}, nil
}
