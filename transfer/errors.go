package transfer

import (
	"fmt"

	"github.com/moyoez/fitsnap-go/types"
)

// FallbackMessage is shown when the service gives no usable detail.
const FallbackMessage = "Upload failed. Please try again."

// AnalysisError describes a failed call to the analysis service.
type AnalysisError struct {
	Kind       types.FailureKind
	StatusCode int    // 0 when no response was received
	Detail     string // "detail" field of the error body, if any
	Err        error
}

func (e *AnalysisError) Error() string {
	switch {
	case e.Detail != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Detail)
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.StatusCode)
	default:
		return string(e.Kind)
	}
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// UserMessage is the text surfaced to the user: the service detail verbatim, else the fallback.
func (e *AnalysisError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return FallbackMessage
}
