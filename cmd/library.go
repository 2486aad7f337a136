package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"medialog/internal/formatter"
	"medialog/internal/models"
	"medialog/internal/shared"
	"medialog/internal/store"
	"medialog/internal/tasks"
)

// LibraryAdd adds a new record to the library.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	mediaType, err := models.ParseMediaType(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	s, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	record, err := s.Add(ctx, title, mediaType)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Added %s (%s)\nID: %s\n", record.Title, record.Type, record.ID)
}

// LibraryList prints the filtered, sorted library view with per-type counts.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	query, err := r.parseQuery(cmd)
	if err != nil {
		return err
	}

	s, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	projection := s.Project(query)

	if cmd.Bool("json") {
		return r.writeJSON(projection.Items, cmd.Bool("pretty"))
	}

	owner := s.Session().Email
	if owner == "" {
		owner = s.Session().UserID
	}
	r.writePlainHeader(fmt.Sprintf("Library of %s", owner))

	counts := make([]string, 0, len(models.MediaTypes()))
	for _, mediaType := range models.MediaTypes() {
		counts = append(counts, fmt.Sprintf("%s: %d", mediaType, projection.Counts[mediaType]))
	}
	r.writePlain("%s\n\n", strings.Join(counts, "  "))

	if len(projection.Items) == 0 {
		return r.writePlain("No records match.\n")
	}

	for i, item := range projection.Items {
		line := fmt.Sprintf("%d. %s (%s) %s", i+1, item.Title, item.Type, formatter.Stars(item.Rating))
		if item.Dirty {
			line += "  [unsaved]"
		}
		r.writePlain("%s\n   id: %s\n", line, item.ID)
	}

	return nil
}

// LibraryRate sets the rating on a record.
func (r *Runner) LibraryRate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	rating, err := strconv.Atoi(cmd.StringArg("rating"))
	if err != nil {
		return fmt.Errorf("%w: rating must be a number", shared.ErrInvalidArgument)
	}

	s, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	if err := s.SetRating(ctx, id, rating); err != nil {
		return err
	}

	record, _ := s.Get(id)
	return r.writePlain("✓ %s rated %s\n", record.Title, formatter.Stars(record.Rating))
}

// LibraryEdit changes a record's title or type.
func (r *Runner) LibraryEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	var fields store.EditFields
	if cmd.IsSet("title") {
		title := cmd.String("title")
		fields.Title = &title
	}
	if cmd.IsSet("type") {
		mediaType, err := models.ParseMediaType(cmd.String("type"))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		fields.Type = &mediaType
	}

	s, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	if err := s.Edit(ctx, id, fields); err != nil {
		return err
	}

	record, _ := s.Get(id)
	return r.writePlain("✓ Updated %s (%s)\n", record.Title, record.Type)
}

// LibraryRemove deletes a record.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	s, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	record, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}

	if err := s.Remove(ctx, id); err != nil {
		return err
	}

	return r.writePlain("✓ Removed %s\n", record.Title)
}

// LibraryImport scans a directory of audio files and adds them as music records.
func (r *Runner) LibraryImport(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		return fmt.Errorf("%w: dir", shared.ErrMissingArgument)
	}

	engine, _, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := engine.Import(ctx, progress, dir, tasks.ImportOpts{DryRun: cmd.Bool("dry-run")})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Scanned: %d  Imported: %d  Skipped: %d", result.Scanned, result.Imported, result.Skipped)
	for _, failure := range result.Failures {
		r.writePlain("✗ %s: %v\n", failure.Path, failure.Err)
	}
	return nil
}

// LibraryExport writes the library view to a file.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	query, err := r.parseQuery(cmd)
	if err != nil {
		return err
	}

	engine, _, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := engine.Export(progress, query, tasks.ExportOpts{
		Format: cmd.String("format"),
		Path:   cmd.String("output"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return r.writePlain("✓ Exported %d records to %s\n", result.Items, result.Path)
}

// LibraryResync re-persists records whose last save failed.
func (r *Runner) LibraryResync(ctx context.Context, cmd *cli.Command) error {
	engine, _, err := r.engine(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := engine.Resync(ctx, progress, tasks.ResyncOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if result.TotalRecords == 0 {
		return r.writePlain("Nothing to resync, all records are saved.\n")
	}

	r.writePlainln("Synced: %d  Failed: %d", result.Synced, result.Failed)
	for _, failure := range result.Errors {
		r.writePlain("✗ %s: %v\n", failure.Title, failure.Err)
	}
	return nil
}

// parseQuery builds a view query from the shared --type/--search/--sort flags.
func (r *Runner) parseQuery(cmd *cli.Command) (models.ViewQuery, error) {
	query := models.ViewQuery{TypeFilter: models.TypeAll}

	if typeFlag := cmd.String("type"); typeFlag != "" && !strings.EqualFold(typeFlag, "all") {
		mediaType, err := models.ParseMediaType(typeFlag)
		if err != nil {
			return query, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		query.TypeFilter = mediaType
	}

	query.SearchText = cmd.String("search")

	sortKey, err := models.ParseSortKey(cmd.String("sort"))
	if err != nil {
		return query, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	query.Sort = sortKey

	return query, nil
}
