package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/transfer"
	"github.com/moyoez/fitsnap-go/types"
)

var errNoAnalyzer = errors.New("no analysis service configured")

// Submit dispatches both staged images and the identity as one analysis request and returns
// without waiting for it. The payload is captured here, so clearing a slot afterwards does
// not change what is sent.
func (w *Workflow) Submit() error {
	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return ErrSessionClosed
	}
	s := &w.session
	if s.stage != StageAcquisition {
		w.mu.Unlock()
		return ErrStageGated
	}
	if s.submission.Status == SubmissionInFlight {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	front, side := s.slots[SlotFront], s.slots[SlotSide]
	if front == nil || side == nil {
		s.err = &Failure{Kind: types.FailureMissingInput, Message: MissingInputMessage}
		w.mu.Unlock()
		return ErrMissingInput
	}

	s.err = nil
	s.submission = Submission{Status: SubmissionInFlight, StartedAt: time.Now()}
	request := &types.MeasurementRequest{
		Front:  front.part(),
		Side:   side.part(),
		UserID: w.identity,
	}
	gen := w.generation
	w.pending.Add(1)
	w.mu.Unlock()

	tool.DefaultLogger.Infof("[Submit] Session %s dispatching analysis for %s (generation %d)", w.id, w.identity, gen)
	w.emit(gen, types.NotifyTypeSubmissionStarted, "Analyzing", "Uploading photos", nil)

	go func() {
		defer w.pending.Done()
		if w.analyzer == nil {
			w.completeSubmission(gen, nil, errNoAnalyzer)
			return
		}
		result, err := w.analyzer.Analyze(context.Background(), request)
		w.completeSubmission(gen, result, err)
	}()
	return nil
}

func (w *Workflow) completeSubmission(gen uint64, result *types.MeasurementUploadResponse, err error) {
	if err == nil && result == nil {
		err = &transfer.AnalysisError{Kind: types.FailureMalformedResponse, Err: errors.New("empty analysis result")}
	}

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		tool.DefaultLogger.Debugf("[Submit] Session %s dropped completion of generation %d", w.id, gen)
		return
	}
	sub := &w.session.submission
	sub.FinishedAt = time.Now()
	if err != nil {
		kind, message := classifyFailure(err)
		sub.Status = SubmissionFailed
		sub.Kind = kind
		sub.Message = message
		w.mu.Unlock()

		tool.DefaultLogger.Errorf("[Submit] Session %s analysis failed: %v", w.id, err)
		w.emit(gen, types.NotifyTypeSubmissionFailed, "Analysis Failed", message, map[string]any{
			"kind": string(kind),
		})
		return
	}
	sub.Status = SubmissionSucceeded
	sub.Result = result
	w.advanceToResult()
	w.mu.Unlock()

	tool.DefaultLogger.Infof("[Submit] Session %s received %d measurements (upload_id=%s)", w.id, len(result.Measurements), result.UploadID)
	w.emit(gen, types.NotifyTypeSubmissionSucceeded, "Analysis Complete", result.Message, map[string]any{
		"uploadId": result.UploadID,
	})
	w.emitStage(gen, StageResult)
}

// classifyFailure maps an analysis error to its kind and the message shown to the user.
func classifyFailure(err error) (types.FailureKind, string) {
	var analysisErr *transfer.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Kind, analysisErr.UserMessage()
	}
	return types.FailureTransport, transfer.FallbackMessage
}
