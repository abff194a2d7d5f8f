package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/moyoez/fitsnap-go/types"
)

// Slot names one of the two staging locations.
type Slot int

const (
	SlotFront Slot = iota
	SlotSide
	slotCount
)

func (s Slot) String() string {
	switch s {
	case SlotFront:
		return "front"
	case SlotSide:
		return "side"
	default:
		return "unknown"
	}
}

func (s Slot) valid() bool {
	return s >= SlotFront && s < slotCount
}

// ParseSlot accepts "front" or "side", case-insensitively.
func ParseSlot(name string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "front":
		return SlotFront, nil
	case "side":
		return SlotSide, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
	}
}

// Image is a decoded, staged photograph. It is never mutated once written to a slot.
type Image struct {
	FileName   string
	MIMEType   string
	Data       []byte
	PreviewURI string
	Width      int
	Height     int
	SHA256     string
	AcquiredAt time.Time
}

func (img *Image) part() types.ImagePart {
	return types.ImagePart{
		FileName: img.FileName,
		MIMEType: img.MIMEType,
		Data:     img.Data,
	}
}

// SubmissionStatus is the lifecycle of the single analysis request.
type SubmissionStatus int

const (
	SubmissionIdle SubmissionStatus = iota
	SubmissionInFlight
	SubmissionSucceeded
	SubmissionFailed
)

func (s SubmissionStatus) String() string {
	switch s {
	case SubmissionIdle:
		return "idle"
	case SubmissionInFlight:
		return "in_flight"
	case SubmissionSucceeded:
		return "succeeded"
	case SubmissionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission holds the outcome of the latest analyze action.
type Submission struct {
	Status     SubmissionStatus
	Result     *types.MeasurementUploadResponse // set when Succeeded
	Kind       types.FailureKind                // set when Failed
	Message    string                           // set when Failed
	StartedAt  time.Time
	FinishedAt time.Time
}

type session struct {
	stage      Stage
	slots      [slotCount]*Image
	slotEpochs [slotCount]uint64 // bumped by Clear so decodes started earlier are dropped
	submission Submission
	err        *Failure
}

func newSession() session {
	return session{stage: StageInstructions}
}

// SlotView is the JSON view of a staged image.
type SlotView struct {
	FileName   string    `json:"fileName"`
	MIMEType   string    `json:"mimeType"`
	Size       int       `json:"size"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	SHA256     string    `json:"sha256"`
	PreviewURI string    `json:"previewUri,omitempty"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// SubmissionView is the JSON view of the submission lifecycle.
type SubmissionView struct {
	Status     string                           `json:"status"`
	Kind       types.FailureKind                `json:"kind,omitempty"`
	Message    string                           `json:"message,omitempty"`
	Result     *types.MeasurementUploadResponse `json:"result,omitempty"`
	StartedAt  *time.Time                       `json:"startedAt,omitempty"`
	FinishedAt *time.Time                       `json:"finishedAt,omitempty"`
}

// Snapshot is a consistent copy of the session taken under the workflow lock.
type Snapshot struct {
	ID         string         `json:"id"`
	Identity   string         `json:"identity"`
	Generation uint64         `json:"generation"`
	Stage      string         `json:"stage"`
	StepNumber int            `json:"step"`
	Front      *SlotView      `json:"front"`
	Side       *SlotView      `json:"side"`
	Submission SubmissionView `json:"submission"`
	Error      *Failure       `json:"error,omitempty"`
	CanSubmit  bool           `json:"canSubmit"`
	Closed     bool           `json:"closed,omitempty"`
}

// WithoutPreviews drops the data URIs, which can be several megabytes each.
func (s Snapshot) WithoutPreviews() Snapshot {
	if s.Front != nil {
		front := *s.Front
		front.PreviewURI = ""
		s.Front = &front
	}
	if s.Side != nil {
		side := *s.Side
		side.PreviewURI = ""
		s.Side = &side
	}
	return s
}

func slotView(img *Image) *SlotView {
	if img == nil {
		return nil
	}
	return &SlotView{
		FileName:   img.FileName,
		MIMEType:   img.MIMEType,
		Size:       len(img.Data),
		Width:      img.Width,
		Height:     img.Height,
		SHA256:     img.SHA256,
		PreviewURI: img.PreviewURI,
		AcquiredAt: img.AcquiredAt,
	}
}

func submissionView(sub Submission) SubmissionView {
	view := SubmissionView{
		Status:  sub.Status.String(),
		Kind:    sub.Kind,
		Message: sub.Message,
		Result:  sub.Result,
	}
	if !sub.StartedAt.IsZero() {
		started := sub.StartedAt
		view.StartedAt = &started
	}
	if !sub.FinishedAt.IsZero() {
		finished := sub.FinishedAt
		view.FinishedAt = &finished
	}
	return view
}
