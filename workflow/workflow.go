package workflow

import (
	"context"
	"sync"

	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
)

// Analyzer sends a staged pair of photos to the measurement service.
type Analyzer interface {
	Analyze(ctx context.Context, req *types.MeasurementRequest) (*types.MeasurementUploadResponse, error)
}

// NotifyFunc receives every state change of a workflow.
type NotifyFunc func(*types.Notification)

// Option configures a Workflow.
type Option func(*Workflow)

// WithNotifier routes change notifications to fn.
func WithNotifier(fn NotifyFunc) Option {
	return func(w *Workflow) {
		w.notifier = fn
	}
}

// WithMaxImageBytes bounds the size of a single staged image. Zero or negative keeps the default.
func WithMaxImageBytes(n int64) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.maxImageBytes = n
		}
	}
}

// WithID sets the session id instead of generating one.
func WithID(id string) Option {
	return func(w *Workflow) {
		if id != "" {
			w.id = id
		}
	}
}

// Workflow owns one upload session: two image slots, a stage and a single analysis request.
// All methods are safe for concurrent use.
type Workflow struct {
	id            string
	identity      string
	analyzer      Analyzer
	maxImageBytes int64
	notifier      NotifyFunc

	mu         sync.Mutex
	generation uint64
	session    session
	discarded  bool

	// emitMu orders notifications. A notification is delivered only while its generation is
	// still current, so nothing from before a reset or discard follows session_reset.
	emitMu sync.Mutex

	pending sync.WaitGroup
}

// New creates a workflow in INSTRUCTIONS. An empty identity selects guest mode.
func New(identity string, analyzer Analyzer, opts ...Option) *Workflow {
	w := &Workflow{
		id:            tool.GenerateRandomUUID(),
		identity:      ResolveIdentity(identity),
		analyzer:      analyzer,
		maxImageBytes: tool.DefaultMaxImageBytes,
		session:       newSession(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) ID() string {
	return w.id
}

func (w *Workflow) Identity() string {
	return w.identity
}

// Generation changes on every reset and on discard.
func (w *Workflow) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

// Stage returns the current stage.
func (w *Workflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.stage
}

// Image returns the image staged in slot, or nil.
func (w *Workflow) Image(slot Slot) *Image {
	if !slot.valid() {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.slots[slot]
}

// Wait blocks until every decode and dispatch started so far has completed.
func (w *Workflow) Wait() {
	w.pending.Wait()
}

// Discard closes the workflow. Pending completions are dropped and further operations fail
// with ErrSessionClosed. Calling it twice is harmless.
func (w *Workflow) Discard() {
	w.mu.Lock()
	if w.discarded {
		w.mu.Unlock()
		return
	}
	w.discarded = true
	w.generation++
	gen := w.generation
	w.mu.Unlock()

	tool.DefaultLogger.Debugf("[Discard] Session %s closed", w.id)
	w.emit(gen, types.NotifyTypeSessionClosed, "Session Closed", "", nil)
}

// Snapshot copies the session state for display.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.session
	snap := Snapshot{
		ID:         w.id,
		Identity:   w.identity,
		Generation: w.generation,
		Stage:      s.stage.String(),
		StepNumber: s.stage.Number(),
		Front:      slotView(s.slots[SlotFront]),
		Side:       slotView(s.slots[SlotSide]),
		Submission: submissionView(s.submission),
		CanSubmit:  w.canSubmitLocked(),
		Closed:     w.discarded,
	}
	if s.err != nil {
		failure := *s.err
		snap.Error = &failure
	}
	return snap
}

func (w *Workflow) canSubmitLocked() bool {
	s := &w.session
	return !w.discarded &&
		s.stage == StageAcquisition &&
		s.submission.Status != SubmissionInFlight &&
		s.slots[SlotFront] != nil &&
		s.slots[SlotSide] != nil
}

func (w *Workflow) emit(gen uint64, notifyType, title, message string, data map[string]any) {
	if w.notifier == nil {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if current := w.Generation(); gen != current {
		tool.DefaultLogger.Debugf("[Notify] Session %s dropped %s of generation %d (now %d)", w.id, notifyType, gen, current)
		return
	}
	payload := map[string]any{
		"sessionId":  w.id,
		"generation": gen,
	}
	for k, v := range data {
		payload[k] = v
	}
	w.notifier(&types.Notification{
		Type:    notifyType,
		Title:   title,
		Message: message,
		Data:    payload,
	})
}

func (w *Workflow) emitStage(gen uint64, stage Stage) {
	w.emit(gen, types.NotifyTypeStageChanged, "Stage Changed", stage.String(), map[string]any{
		"stage": stage.String(),
		"step":  stage.Number(),
	})
}
