package workflow

import (
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
)

// Stage is the coarse step of the guided workflow.
type Stage int

const (
	StageInstructions Stage = iota // photography guidelines shown, waiting for acknowledgment
	StageAcquisition               // both photos are staged here and submitted from here
	StageResult                    // measurements received; left only through Reset
)

func (s Stage) String() string {
	switch s {
	case StageInstructions:
		return "instructions"
	case StageAcquisition:
		return "acquisition"
	case StageResult:
		return "result"
	default:
		return "unknown"
	}
}

// Number is the 1-based step shown by the progress indicator.
func (s Stage) Number() int {
	return int(s) + 1
}

// Acknowledge moves INSTRUCTIONS to ACQUISITION. It is a no-op when already acquiring
// and refused from RESULT, which is left only through Reset.
func (w *Workflow) Acknowledge() error {
	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return ErrSessionClosed
	}
	switch w.session.stage {
	case StageAcquisition:
		w.mu.Unlock()
		return nil
	case StageResult:
		w.mu.Unlock()
		return ErrStageGated
	}
	w.session.stage = StageAcquisition
	gen := w.generation
	w.mu.Unlock()

	w.emitStage(gen, StageAcquisition)
	return nil
}

// Reset discards all session data and returns to INSTRUCTIONS, whatever the current state.
// Async work still running for the old session finds a newer generation and is dropped.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return ErrSessionClosed
	}
	w.generation++
	w.session = newSession()
	gen := w.generation
	w.mu.Unlock()

	tool.DefaultLogger.Infof("[Reset] Session %s reset to generation %d", w.id, gen)
	w.emit(gen, types.NotifyTypeSessionReset, "Session Reset", "Upload new photos", nil)
	w.emitStage(gen, StageInstructions)
	return nil
}

// advanceToResult is called by the submission completion with w.mu held.
func (w *Workflow) advanceToResult() {
	w.session.stage = StageResult
}
