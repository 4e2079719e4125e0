package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	FetchComments
	WriteOutput
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case FetchComments:
		return "fetch_comments"
	case WriteOutput:
		return "write_output"
	default:
		return ""
	}
}

func fetchPageUpdate(page, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Message: fmt.Sprintf("Loaded page %d (%d items)", page, items),
	}
}

func commentsUpdate(step, total int, reviewID int64, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   FetchComments,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ review %d: %v", step, total, reviewID, err),
		}
	}
	return ProgressUpdate{
		Phase:   FetchComments,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ review %d", step, total, reviewID),
	}
}

func writeOutputUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s...", path),
		Data:    path,
	}
}
