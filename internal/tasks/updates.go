package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanFiles Phase = iota
	ImportRecords
	ResyncRecords
	ExportLibrary
)

func (p Phase) String() string {
	switch p {
	case ScanFiles:
		return "scan_files"
	case ImportRecords:
		return "import_records"
	case ResyncRecords:
		return "resync_records"
	case ExportLibrary:
		return "export_library"
	default:
		return ""
	}
}

func scanFilesUpdate(step, total int, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Scanning %s for media files...", dir),
	}
}

func importRecordUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Importing: %s", step, total, title),
	}
}

func importSkippedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Skipped (already in library): %s", step, total, title),
	}
}

func resyncStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResyncRecords,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Re-persisting %d unsaved records...", total),
	}
}

func resyncRecordUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResyncRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func resyncFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResyncRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func exportLibraryUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLibrary,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Writing export to %s...", path),
	}
}
