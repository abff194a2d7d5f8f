package types

// CreateSessionRequest is the optional JSON body of POST /api/self/v1/sessions.
type CreateSessionRequest struct {
	UserId string `json:"userId,omitempty"`
}

// AcceptedResponse is returned when async work (a decode or a submission) has been started.
type AcceptedResponse struct {
	SessionId  string `json:"sessionId"`
	Slot       string `json:"slot,omitempty"`
	Generation uint64 `json:"generation"`
	Status     string `json:"status"`
}

// CaptureLink is a URL another device on the LAN can open to reach the UI.
type CaptureLink struct {
	Interface string `json:"interface,omitempty"`
	URL       string `json:"url"`
}
