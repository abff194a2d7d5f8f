package types

// Notification represents a notification message structure.
//
// Workflow notifications carry "sessionId" and "generation" in Data. The generation grows on
// every reset and on close. Over the websocket a session's notifications arrive in order and
// none older than the latest session_reset is sent. The unix socket delivers each message on
// its own connection, so its readers must drop any notification whose generation is lower
// than the highest seen for that session.
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "stage_changed", "submission_failed", etc.
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

const (
	NotifyTypeInfo                = "info"
	NotifyTypeStageChanged        = "stage_changed"
	NotifyTypeSlotUpdated         = "slot_updated"
	NotifyTypeSlotCleared         = "slot_cleared"
	NotifyTypeMediaRejected       = "media_rejected"
	NotifyTypeDecodeFailed        = "decode_failed"
	NotifyTypeSubmissionStarted   = "submission_started"
	NotifyTypeSubmissionSucceeded = "submission_succeeded"
	NotifyTypeSubmissionFailed    = "submission_failed"
	NotifyTypeSessionReset        = "session_reset"
	NotifyTypeSessionClosed       = "session_closed"
)

// NotifyHub receives notifications for fan-out to connected UI clients.
type NotifyHub interface {
	Broadcast(notification *Notification)
}
