package types

// FileInput describes a candidate image referenced by path instead of uploaded bytes.
type FileInput struct {
	FileName string `json:"fileName,omitempty"` // File name (optional if fileUrl is provided)
	FileType string `json:"fileType,omitempty"` // Declared media type, e.g. "image/jpeg" (optional)
	FileUrl  string `json:"fileUrl"`            // File URL (supports file:/// protocol, auto-reads file info)
}
