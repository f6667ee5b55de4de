package tasks

import (
	"fmt"

	"github.com/desertthunder/watchwave/internal/models"
)

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
	ResolveRefs Phase = iota
	FetchDetails
	ApplyImport
	ExportCollection
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ResolveRefs:
		return "resolve_refs"
	case FetchDetails:
		return "fetch_details"
	case ApplyImport:
		return "apply_import"
	case ExportCollection:
		return "export_collection"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolveUpdate(total, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveRefs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolved %d references (%d already tracked)", total, skipped),
	}
}

func fetchedUpdate(step, total int, t *models.Title) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, t.DisplayName),
		Data:    t,
	}
}

func fetchFailedUpdate(step, total int, ref Ref, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, ref, err),
	}
}

func applyUpdate(added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyImport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d titles to the watchlist", added),
	}
}

func exportingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
