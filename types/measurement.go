package types

// MeasurementUploadResponse is the success body of POST /api/measurements/upload.
type MeasurementUploadResponse struct {
	Message      string         `json:"message,omitempty"`
	UploadID     string         `json:"upload_id,omitempty"`
	Measurements map[string]any `json:"measurements"`
}

// ServiceHealth is the body of GET /api/health on the analysis service.
type ServiceHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FailureKind classifies why an intake or submission step did not succeed.
type FailureKind string

const (
	FailureInvalidMedia      FailureKind = "invalid_media"
	FailureMissingInput      FailureKind = "missing_input"
	FailureTransport         FailureKind = "transport_failure"
	FailureServiceRejected   FailureKind = "service_rejected"
	FailureMalformedResponse FailureKind = "malformed_response"
)

// ImagePart is one staged photograph as it is sent to the analysis service.
type ImagePart struct {
	FileName string
	MIMEType string
	Data     []byte
}

// MeasurementRequest is the single multipart submission: both views plus the caller identity.
type MeasurementRequest struct {
	Front  ImagePart
	Side   ImagePart
	UserID string
}
