package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"medialog/internal/models"
	"medialog/internal/shared"
	tu "medialog/internal/testing"
)

func newTestRunner() (*Runner, *tu.MockDocumentStore, *bytes.Buffer) {
	docs := tu.NewMockDocumentStore()
	output := &bytes.Buffer{}

	runner := NewRunner(RunnerOpts{
		Documents: docs,
		Logger:    shared.NewLogger(io.Discard),
		Output:    output,
	})

	return runner, docs, output
}

func runCommand(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "medialog",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"medialog"}, args...))
}

func onlyDocID(t *testing.T, docs *tu.MockDocumentStore) string {
	t.Helper()
	if docs.Len() != 1 {
		t.Fatalf("Expected exactly 1 document, got %d", docs.Len())
	}
	for id := range docs.Docs {
		return id
	}
	return ""
}

func TestLibraryAdd(t *testing.T) {
	t.Run("Adds Record", func(t *testing.T) {
		runner, docs, output := newTestRunner()

		if err := runCommand(t, runner, "library", "add", "Dune", "--type", "book"); err != nil {
			t.Fatalf("Failed to run add: %v", err)
		}

		if !strings.Contains(output.String(), "✓ Added Dune (Book)") {
			t.Errorf("Unexpected output:\n%s", output.String())
		}

		id := onlyDocID(t, docs)
		record := docs.Docs[id]
		if record.OwnerID != localUserID || record.Rating != 0 {
			t.Errorf("Unexpected stored record: %+v", record)
		}
	})

	t.Run("Missing Title", func(t *testing.T) {
		runner, _, _ := newTestRunner()

		err := runCommand(t, runner, "library", "add")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Invalid Type", func(t *testing.T) {
		runner, docs, _ := newTestRunner()

		err := runCommand(t, runner, "library", "add", "Dune", "--type", "podcast")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("Expected ErrInvalidFlag, got %v", err)
		}
		if docs.Len() != 0 {
			t.Errorf("Invalid type must not create a record, got %d", docs.Len())
		}
	})
}

func TestLibraryList(t *testing.T) {
	seed := func(t *testing.T, runner *Runner) {
		t.Helper()
		for _, args := range [][]string{
			{"library", "add", "Heat", "--type", "movie"},
			{"library", "add", "Dune", "--type", "book"},
			{"library", "add", "Alien", "--type", "movie"},
		} {
			if err := runCommand(t, runner, args...); err != nil {
				t.Fatalf("Failed to seed record: %v", err)
			}
		}
	}

	t.Run("Plain Output With Counts", func(t *testing.T) {
		runner, _, output := newTestRunner()
		seed(t, runner)
		output.Reset()

		if err := runCommand(t, runner, "library", "list"); err != nil {
			t.Fatalf("Failed to run list: %v", err)
		}

		for _, want := range []string{"Movie: 2", "Book: 1", "TV Show: 0", "Heat", "Dune", "Alien"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("List output missing %q:\n%s", want, output.String())
			}
		}
	})

	t.Run("Counts Cover Full Collection When Filtered", func(t *testing.T) {
		runner, _, output := newTestRunner()
		seed(t, runner)
		output.Reset()

		if err := runCommand(t, runner, "library", "list", "--type", "book"); err != nil {
			t.Fatalf("Failed to run filtered list: %v", err)
		}

		if !strings.Contains(output.String(), "Movie: 2") {
			t.Errorf("Filtered list should still count all types:\n%s", output.String())
		}
		if strings.Contains(output.String(), "Heat") {
			t.Errorf("Filtered list leaked movie records:\n%s", output.String())
		}
	})

	t.Run("JSON Output", func(t *testing.T) {
		runner, _, output := newTestRunner()
		seed(t, runner)
		output.Reset()

		if err := runCommand(t, runner, "library", "list", "--json", "--type", "movie"); err != nil {
			t.Fatalf("Failed to run JSON list: %v", err)
		}

		var items []models.MediaRecord
		if err := json.Unmarshal(output.Bytes(), &items); err != nil {
			t.Fatalf("Output is not valid JSON: %v\n%s", err, output.String())
		}
		if len(items) != 2 {
			t.Errorf("Expected 2 movies, got %d", len(items))
		}
	})

	t.Run("Search Filter", func(t *testing.T) {
		runner, _, output := newTestRunner()
		seed(t, runner)
		output.Reset()

		if err := runCommand(t, runner, "library", "list", "--search", "dUn"); err != nil {
			t.Fatalf("Failed to run search list: %v", err)
		}

		if !strings.Contains(output.String(), "Dune") || strings.Contains(output.String(), "Heat") {
			t.Errorf("Search output incorrect:\n%s", output.String())
		}
	})

	t.Run("Invalid Sort Flag", func(t *testing.T) {
		runner, _, _ := newTestRunner()

		err := runCommand(t, runner, "library", "list", "--sort", "sideways")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("Expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestLibraryRate(t *testing.T) {
	t.Run("Sets Rating", func(t *testing.T) {
		runner, docs, output := newTestRunner()
		if err := runCommand(t, runner, "library", "add", "Heat", "--type", "movie"); err != nil {
			t.Fatalf("Failed to add record: %v", err)
		}
		id := onlyDocID(t, docs)
		output.Reset()

		if err := runCommand(t, runner, "library", "rate", id, "4"); err != nil {
			t.Fatalf("Failed to rate record: %v", err)
		}

		if !strings.Contains(output.String(), "★★★★☆") {
			t.Errorf("Expected star output, got:\n%s", output.String())
		}
		if docs.Docs[id].Rating != 4 {
			t.Errorf("Expected persisted rating 4, got %d", docs.Docs[id].Rating)
		}
	})

	t.Run("Out Of Range", func(t *testing.T) {
		runner, docs, _ := newTestRunner()
		if err := runCommand(t, runner, "library", "add", "Heat", "--type", "movie"); err != nil {
			t.Fatalf("Failed to add record: %v", err)
		}
		id := onlyDocID(t, docs)

		err := runCommand(t, runner, "library", "rate", id, "6")
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
		if docs.Docs[id].Rating != 0 {
			t.Errorf("Rating should be unchanged, got %d", docs.Docs[id].Rating)
		}
	})

	t.Run("Unknown ID", func(t *testing.T) {
		runner, _, _ := newTestRunner()

		err := runCommand(t, runner, "library", "rate", "nope", "3")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestLibraryEdit(t *testing.T) {
	runner, docs, output := newTestRunner()
	if err := runCommand(t, runner, "library", "add", "Dune", "--type", "movie"); err != nil {
		t.Fatalf("Failed to add record: %v", err)
	}
	id := onlyDocID(t, docs)
	output.Reset()

	if err := runCommand(t, runner, "library", "edit", id, "--title", "Dune Messiah", "--type", "book"); err != nil {
		t.Fatalf("Failed to edit record: %v", err)
	}

	if !strings.Contains(output.String(), "✓ Updated Dune Messiah (Book)") {
		t.Errorf("Unexpected output:\n%s", output.String())
	}

	record := docs.Docs[id]
	if record.Title != "Dune Messiah" || record.Type != models.TypeBook {
		t.Errorf("Unexpected persisted record: %+v", record)
	}
}

func TestLibraryRemove(t *testing.T) {
	t.Run("Removes Record", func(t *testing.T) {
		runner, docs, output := newTestRunner()
		if err := runCommand(t, runner, "library", "add", "Heat", "--type", "movie"); err != nil {
			t.Fatalf("Failed to add record: %v", err)
		}
		id := onlyDocID(t, docs)
		output.Reset()

		if err := runCommand(t, runner, "library", "remove", id); err != nil {
			t.Fatalf("Failed to remove record: %v", err)
		}

		if !strings.Contains(output.String(), "✓ Removed Heat") {
			t.Errorf("Unexpected output:\n%s", output.String())
		}
		if docs.Len() != 0 {
			t.Errorf("Expected empty document store, got %d", docs.Len())
		}
	})

	t.Run("Unknown ID", func(t *testing.T) {
		runner, _, _ := newTestRunner()

		err := runCommand(t, runner, "library", "remove", "nope")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestLibraryExport(t *testing.T) {
	runner, _, output := newTestRunner()
	if err := runCommand(t, runner, "library", "add", "Heat", "--type", "movie"); err != nil {
		t.Fatalf("Failed to add record: %v", err)
	}
	output.Reset()

	path := filepath.Join(t.TempDir(), "library.csv")
	if err := runCommand(t, runner, "library", "export", "--format", "csv", "--output", path); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	tu.AssertFileExists(t, path)
	if !strings.Contains(tu.MustReadFile(t, path), "Heat") {
		t.Errorf("Export file missing record")
	}
	if !strings.Contains(output.String(), "✓ Exported 1 records") {
		t.Errorf("Unexpected output:\n%s", output.String())
	}
}

func TestLibraryResync(t *testing.T) {
	runner, _, output := newTestRunner()
	if err := runCommand(t, runner, "library", "resync"); err != nil {
		t.Fatalf("Failed to run resync: %v", err)
	}

	if !strings.Contains(output.String(), "Nothing to resync") {
		t.Errorf("Unexpected output:\n%s", output.String())
	}
}

func TestAuthStatus_LocalMode(t *testing.T) {
	runner, _, output := newTestRunner()

	if err := runCommand(t, runner, "auth", "status"); err != nil {
		t.Fatalf("Failed to run auth status: %v", err)
	}

	if !strings.Contains(output.String(), "Mode: local") {
		t.Errorf("Expected local mode notice, got:\n%s", output.String())
	}
}
