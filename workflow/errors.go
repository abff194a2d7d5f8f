package workflow

import (
	"errors"

	"github.com/moyoez/fitsnap-go/types"
)

// MissingInputMessage is shown when analysis is requested before both photos are staged.
const MissingInputMessage = "Please upload both front and side images"

var (
	ErrUnknownSlot        = errors.New("unknown slot: must be front or side")
	ErrStageGated         = errors.New("operation not available in the current stage")
	ErrInvalidMedia       = errors.New("candidate is not an image")
	ErrMissingInput       = errors.New(MissingInputMessage)
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrSessionClosed      = errors.New("session has been closed")
	ErrImageTooLarge      = errors.New("image exceeds the size limit")
	ErrEmptyImage         = errors.New("image is empty")
)

// Failure is an inline problem the user should see next to the intake controls.
type Failure struct {
	Kind    types.FailureKind `json:"kind"`
	Slot    string            `json:"slot,omitempty"`
	Message string            `json:"message"`
}
