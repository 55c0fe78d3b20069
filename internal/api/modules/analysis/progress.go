package analysis_module

import (
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
)

// progressFor derives poll progress purely from status and stage results.
// During processing the last finished stage wins; the jump from 90 to 100
// happens when the run itself flips the session to completed.
func progressFor(status session.Status, results *session.Results) (int, string) {
	switch status {
	case session.StatusCompleted:
		return 100, "Analysis Complete"
	case session.StatusFailed:
		return 0, "Analysis Failed"
	case session.StatusProcessing:
		progress, stage := 0, "Preparing"
		if results != nil {
			if results.Stage1 != "" {
				progress, stage = 33, "Structure Analysis Complete"
			}
			if results.Stage2 != "" {
				progress, stage = 66, "Content Analysis Complete"
			}
			if results.Stage3 != "" {
				progress, stage = 90, "Finalizing"
			}
		}
		return progress, stage
	default:
		return 0, "Preparing"
	}
}
