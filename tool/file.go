package tool

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/moyoez/fitsnap-go/types"
)

const octetStream = "application/octet-stream"

// DeclaredMediaType returns the media type a candidate declares. When the declaration is
// missing or generic the type is sniffed from the content, then guessed from the extension.
func DeclaredMediaType(declared string, head []byte, fileName string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != octetStream {
		return mediaType
	}
	if sniffed := SniffedMediaType(head); sniffed != "" {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}
	return ""
}

// SniffedMediaType detects the media type from content alone. It returns "" when nothing
// more specific than application/octet-stream is recognised.
func SniffedMediaType(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	detected := mimetype.Detect(head)
	if detected == nil || detected.Is(octetStream) {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return ""
	}
	return mediaType
}

// OpenFileInput opens the local file a FileInput points at and fills its missing fields.
// FileType is always replaced by the type sniffed from the file content; a declared type
// is never trusted for a path on disk. The caller owns the returned file.
func OpenFileInput(fileInput *types.FileInput) (*os.File, error) {
	if fileInput.FileUrl == "" {
		return nil, fmt.Errorf("fileUrl is required")
	}
	parsedUrl, err := url.Parse(fileInput.FileUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid fileUrl: %w", err)
	}
	if parsedUrl.Scheme != "file" {
		return nil, fmt.Errorf("only file:// protocol is supported for fileUrl")
	}

	filePath := parsedUrl.Path
	DefaultLogger.Debugf("Reading file info from: %s", filePath)

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	if fileInput.FileName == "" {
		fileInput.FileName = filepath.Base(filePath)
	}
	head := make([]byte, 3072)
	n, readErr := io.ReadFull(file, head)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read file header: %w", readErr)
	}
	if declared := fileInput.FileType; declared != "" {
		DefaultLogger.Debugf("Ignoring declared fileType %s for %s", declared, filePath)
	}
	fileInput.FileType = SniffedMediaType(head[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	DefaultLogger.Debugf("Detected fileType: %s", fileInput.FileType)
	return file, nil
}
